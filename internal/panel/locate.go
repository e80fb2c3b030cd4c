package panel

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// windowQueries is the slice of the X connection the locator needs.
type windowQueries interface {
	ClientList() ([]xproto.Window, error)
	IsDock(windowID xproto.Window) bool
	WindowClass(windowID xproto.Window) (string, error)
}

// Locate scans the WM's client list for the first EWMH dock window. A
// non-empty class restricts the match to docks whose WM_CLASS class field
// equals it exactly, which disambiguates setups running several docks (a
// bar plus a launcher dock, say).
func Locate(q windowQueries, class string) (xproto.Window, error) {
	clients, err := q.ClientList()
	if err != nil {
		return 0, fmt.Errorf("client list: %w", err)
	}

	for _, windowID := range clients {
		if !q.IsDock(windowID) {
			continue
		}
		if class != "" {
			got, err := q.WindowClass(windowID)
			if err != nil || got != class {
				continue
			}
		}
		return windowID, nil
	}

	if class != "" {
		return 0, fmt.Errorf("no dock window with class %q", class)
	}
	return 0, fmt.Errorf("no dock window found")
}

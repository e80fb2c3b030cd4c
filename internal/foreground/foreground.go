// Package foreground classifies the focused window against the overlay
// class table and reports every change of focus to the engine. Launchers
// and the panel family count as overlays: while one of them holds focus the
// panel stays on screen.
package foreground

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/shybar/internal/engine"
	"github.com/1broseidon/shybar/internal/x11"
)

// overlayClasses are the WM_CLASS class names treated as system overlays.
// Matching is exact and case-sensitive on the class (second) field of
// WM_CLASS; WM_CLASS is set once at window creation, so no normalization is
// applied.
var overlayClasses = map[string]struct{}{
	"Rofi":            {},
	"Ulauncher":       {},
	"Xfce4-appfinder": {},
	"jgmenu":          {},
	"Polybar":         {},
	"Tint2":           {},
	"Xfce4-panel":     {},
}

// IsOverlayClass reports whether class names a recognized overlay surface.
func IsOverlayClass(class string) bool {
	_, ok := overlayClasses[class]
	return ok
}

// Poster is the engine inbox. Posts must not block.
type Poster interface {
	Post(ev engine.Event) bool
}

// Watcher listens for active-window changes on the root window and posts a
// classification verdict for each one.
type Watcher struct {
	conn   *x11.Connection
	poster Poster
	logger *slog.Logger

	activeAtom xproto.Atom
	lookup     func() (string, error) // class of the active window
}

// NewWatcher interns the _NET_ACTIVE_WINDOW atom and prepares the watcher.
func NewWatcher(conn *x11.Connection, poster Poster, logger *slog.Logger) (*Watcher, error) {
	atom, err := xprop.Atm(conn.XUtil, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return nil, fmt.Errorf("intern _NET_ACTIVE_WINDOW: %w", err)
	}

	w := &Watcher{
		conn:       conn,
		poster:     poster,
		logger:     logger,
		activeAtom: atom,
	}
	w.lookup = w.activeWindowClass
	return w, nil
}

// Register subscribes to PropertyNotify on the root window. The callback
// runs on the xevent goroutine and does nothing beyond the bounded lookups
// and the enqueue; duplicate verdicts are posted as-is and absorbed by the
// engine's edge triggering.
func (w *Watcher) Register() error {
	if err := xwindow.New(w.conn.XUtil, w.conn.Root).Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("listen on root window: %w", err)
	}

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		if ev.Atom != w.activeAtom {
			return
		}
		w.report()
	}).Connect(w.conn.XUtil, w.conn.Root)

	return nil
}

// report posts the current verdict to the engine.
func (w *Watcher) report() {
	w.poster.Post(engine.Event{Type: engine.OverlayChanged, Overlay: w.classify()})
}

// classify resolves the focused window to an overlay verdict. Every failure
// along the query path (no active window, window destroyed mid-query, class
// unreadable) classifies as false: a window we cannot identify is ordinary.
func (w *Watcher) classify() bool {
	class, err := w.lookup()
	if err != nil {
		w.logger.Debug("foreground class lookup failed", "error", err)
		return false
	}
	return IsOverlayClass(class)
}

// activeWindowClass returns the class field of the active window's WM_CLASS.
func (w *Watcher) activeWindowClass() (string, error) {
	active, err := w.conn.GetActiveWindow()
	if err != nil {
		return "", fmt.Errorf("active window: %w", err)
	}
	if active == 0 {
		// No window focused at all.
		return "", nil
	}
	class, err := w.conn.WindowClass(active)
	if err != nil {
		return "", fmt.Errorf("wm_class of window %d: %w", active, err)
	}
	return class, nil
}

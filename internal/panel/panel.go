// Package panel owns the managed dock window: locating it, taking over its
// reserved screen space, mapping and unmapping it on engine decisions, and
// re-acquiring it when the panel process restarts.
package panel

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/1broseidon/shybar/internal/x11"
)

// Hide repeats the unmap because some window managers re-map a dock right
// after an unmap while restacking; spaced repeats make the hidden state
// stick.
const (
	hideAttempts = 3
	hideSpacing  = 50 * time.Millisecond
)

// The strut properties a panel publishes to reserve screen space. A panel
// may publish either or both.
const (
	strutPartialProp = "_NET_WM_STRUT_PARTIAL"
	strutProp        = "_NET_WM_STRUT"
)

// xops isolates the raw X requests the sink issues so tests can script and
// count them.
type xops interface {
	mapWindow(win xproto.Window) error
	unmapWindow(win xproto.Window) error
	readProp(win xproto.Window, prop string) ([]uint, error)
	writeProp(win xproto.Window, prop string, values []uint) error
	deleteProp(win xproto.Window, prop string) error
}

type connOps struct {
	conn *x11.Connection
}

func (o *connOps) mapWindow(win xproto.Window) error {
	return xproto.MapWindowChecked(o.conn.XUtil.Conn(), win).Check()
}

func (o *connOps) unmapWindow(win xproto.Window) error {
	return xproto.UnmapWindowChecked(o.conn.XUtil.Conn(), win).Check()
}

func (o *connOps) readProp(win xproto.Window, prop string) ([]uint, error) {
	return xprop.PropValNums(xprop.GetProperty(o.conn.XUtil, win, prop))
}

func (o *connOps) writeProp(win xproto.Window, prop string, values []uint) error {
	return xprop.ChangeProp32(o.conn.XUtil, win, prop, "CARDINAL", values...)
}

func (o *connOps) deleteProp(win xproto.Window, prop string) error {
	atom, err := xprop.Atm(o.conn.XUtil, prop)
	if err != nil {
		return err
	}
	return xproto.DeletePropertyChecked(o.conn.XUtil.Conn(), win, atom).Check()
}

// Sink applies visibility decisions to the panel window. All calls are
// best-effort: X errors are logged and swallowed, a lost window (handle 0)
// turns every call into a no-op until the watcher swaps in a replacement.
type Sink struct {
	ops    xops
	logger *slog.Logger
	sleep  func(time.Duration)

	// The handle is the one value shared across goroutines: the restart
	// watcher swaps it on the xevent goroutine while the engine reads it.
	mu     sync.Mutex
	window xproto.Window

	saved map[string][]uint // strut values captured when auto-hide went on
}

// NewSink wraps the located panel window.
func NewSink(conn *x11.Connection, window xproto.Window, logger *slog.Logger) *Sink {
	return &Sink{
		ops:    &connOps{conn: conn},
		logger: logger,
		sleep:  time.Sleep,
		window: window,
		saved:  make(map[string][]uint),
	}
}

// Window returns the current panel window handle, 0 while the panel is lost.
func (s *Sink) Window() xproto.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// SetWindow swaps the panel handle. The restart watcher calls it with 0 when
// the panel dies and with the replacement once one appears.
func (s *Sink) SetWindow(win xproto.Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = win
}

// Show maps the panel window. Mapping does not transfer input focus, so a
// reveal never steals keys from the foreground application.
func (s *Sink) Show() {
	win := s.Window()
	if win == 0 {
		return
	}
	if err := s.ops.mapWindow(win); err != nil {
		s.logger.Warn("map request failed", "window", win, "error", err)
		return
	}
	s.logger.Debug("panel shown", "window", win)
}

// Hide unmaps the panel window hideAttempts times, hideSpacing apart,
// regardless of individual outcomes.
func (s *Sink) Hide() {
	win := s.Window()
	if win == 0 {
		return
	}
	for i := 0; i < hideAttempts; i++ {
		if i > 0 {
			s.sleep(hideSpacing)
		}
		if err := s.ops.unmapWindow(win); err != nil {
			s.logger.Warn("unmap request failed", "window", win, "attempt", i+1, "error", err)
		}
	}
	s.logger.Debug("panel hidden", "window", win)
}

// SetAutoHideMode toggles ownership of the panel's screen-space reservation.
// Enabling snapshots the strut properties and deletes them, so the WM stops
// reserving the panel's edge while shybar manages visibility. Disabling
// writes the snapshot back, returning the reservation on the way out.
func (s *Sink) SetAutoHideMode(enabled bool) {
	win := s.Window()
	if win == 0 {
		return
	}
	if enabled {
		s.removeStruts(win)
	} else {
		s.restoreStruts(win)
	}
}

func (s *Sink) removeStruts(win xproto.Window) {
	// Each enable starts a fresh snapshot; values saved from a previous
	// panel incarnation do not apply to this window.
	s.saved = make(map[string][]uint)

	for _, prop := range []string{strutPartialProp, strutProp} {
		values, err := s.ops.readProp(win, prop)
		if err != nil || len(values) == 0 {
			// Panels publish one or both strut properties; absence is normal.
			continue
		}
		s.saved[prop] = values
		if err := s.ops.deleteProp(win, prop); err != nil {
			s.logger.Warn("strut delete failed", "prop", prop, "window", win, "error", err)
			continue
		}
		s.logger.Debug("strut removed", "prop", prop, "window", win)
	}
}

func (s *Sink) restoreStruts(win xproto.Window) {
	for _, prop := range []string{strutPartialProp, strutProp} {
		values, ok := s.saved[prop]
		if !ok {
			continue
		}
		if err := s.ops.writeProp(win, prop, values); err != nil {
			s.logger.Warn("strut restore failed", "prop", prop, "window", win, "error", err)
			continue
		}
		delete(s.saved, prop)
		s.logger.Debug("strut restored", "prop", prop, "window", win)
	}
}

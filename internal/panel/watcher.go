package panel

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

// Poster is the engine inbox. Posts must not block.
type Poster interface {
	Post(ev engine.Event) bool
}

// Watcher re-acquires the panel after its window is destroyed. Panel
// restarts are routine (theme reload, crash, session tweak); the daemon
// idles while the panel is gone and resumes on the replacement.
type Watcher struct {
	conn   *x11.Connection
	sink   *Sink
	poster Poster
	logger *slog.Logger
	class  string // same optional WM_CLASS filter the locator used

	clientListAtom xproto.Atom

	// lost is only touched on the xevent goroutine.
	lost bool
}

// NewWatcher prepares a restart watcher for the sink's current window.
func NewWatcher(conn *x11.Connection, sink *Sink, poster Poster, class string, logger *slog.Logger) (*Watcher, error) {
	atom, err := xprop.Atm(conn.XUtil, "_NET_CLIENT_LIST")
	if err != nil {
		return nil, fmt.Errorf("intern _NET_CLIENT_LIST: %w", err)
	}

	return &Watcher{
		conn:           conn,
		sink:           sink,
		poster:         poster,
		logger:         logger,
		class:          class,
		clientListAtom: atom,
	}, nil
}

// Register starts watching the current panel window for destruction and the
// root client list for replacements. Callbacks run on the xevent goroutine
// and only rescan, swap the sink handle and enqueue.
func (w *Watcher) Register() error {
	if err := xwindow.New(w.conn.XUtil, w.conn.Root).Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("listen on root window: %w", err)
	}
	xevent.PropertyNotifyFun(w.onRootProperty).Connect(w.conn.XUtil, w.conn.Root)

	return w.watchPanel(w.sink.Window())
}

// watchPanel subscribes to StructureNotify on a panel window so its
// DestroyNotify reaches us.
func (w *Watcher) watchPanel(win xproto.Window) error {
	if err := xwindow.New(w.conn.XUtil, win).Listen(xproto.EventMaskStructureNotify); err != nil {
		return fmt.Errorf("listen on panel window: %w", err)
	}
	xevent.DestroyNotifyFun(w.onPanelDestroyed).Connect(w.conn.XUtil, win)
	return nil
}

func (w *Watcher) onPanelDestroyed(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
	xevent.Detach(xu, ev.Window)
	w.lost = true
	w.sink.SetWindow(0)
	w.logger.Warn("panel window destroyed, waiting for a replacement", "window", ev.Window)
}

func (w *Watcher) onRootProperty(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	if !w.lost || ev.Atom != w.clientListAtom {
		return
	}

	win, err := Locate(w.conn, w.class)
	if err != nil {
		// Client list changed but no dock yet; keep waiting.
		return
	}

	if err := w.watchPanel(win); err != nil {
		w.logger.Warn("cannot watch re-acquired panel", "window", win, "error", err)
	}
	w.lost = false
	w.sink.SetWindow(win)
	w.logger.Info("panel re-acquired", "window", win)

	// The engine re-runs panel init on its own goroutine and recomputes.
	w.poster.Post(engine.Event{Type: engine.PanelRestarted})
}

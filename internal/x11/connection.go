package x11

import (
	"fmt"
	"sync/atomic"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// wakeProp is a daemon-private root window property. Quit touches it so the
// event loop's blocking read returns even when the desktop is idle.
const wakeProp = "SHYBAR_WAKE"

// Connection manages an X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	// quitRequested is set by Quit on the caller's goroutine and read by
	// the wake callback on the event loop goroutine.
	quitRequested atomic.Bool
	wakeAtom      xproto.Atom
	nudge         func() error
	stopLoop      func()
}

func dial() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	// Initialize keybind module (required for keysym resolution)
	keybind.Initialize(xu)
	// EWMH atoms are interned lazily by xgbutil

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}
	// ChangeProp32 is a checked request, so the PropertyNotify it generates
	// is already queued for this connection when the call returns.
	c.nudge = func() error {
		return xprop.ChangeProp32(c.XUtil, c.Root, wakeProp, "CARDINAL", 0)
	}
	c.stopLoop = func() { xevent.Quit(c.XUtil) }
	return c, nil
}

// NewConnection establishes the daemon's primary connection to the X server.
// The xevent loop and all window-property traffic run on it.
func NewConnection() (*Connection, error) {
	c, err := dial()
	if err != nil {
		return nil, err
	}
	if err := c.registerWake(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// NewSampler establishes a second, dedicated connection for the keymap
// poller so its fixed sampling cadence never contends with the event loop.
// A sampler runs no event loop and gets no wake subscription.
func NewSampler() (*Connection, error) {
	return dial()
}

// registerWake subscribes the connection to its own wake property.
// xevent.Quit only marks the loop and breaks it after the current event, so
// stopping a loop that is blocked between events takes an event that is
// guaranteed to arrive: a self-generated property change on the root window.
func (c *Connection) registerWake() error {
	atom, err := xprop.Atm(c.XUtil, wakeProp)
	if err != nil {
		return fmt.Errorf("intern %s: %w", wakeProp, err)
	}
	c.wakeAtom = atom

	if err := xwindow.New(c.XUtil, c.Root).Listen(xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("listen on root window: %w", err)
	}
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		c.handleWake(ev.Atom)
	}).Connect(c.XUtil, c.Root)
	return nil
}

// handleWake runs on the event loop goroutine for every root property
// change and stops the loop once a quit has been requested. Keeping the
// xevent.Quit call on the loop goroutine is what makes the quit flag safe:
// the loop both writes and reads it.
func (c *Connection) handleWake(atom xproto.Atom) {
	if atom != c.wakeAtom || !c.quitRequested.Load() {
		return
	}
	c.stopLoop()
}

// EventLoop starts the main X11 event loop (blocking)
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit stops the event loop started by EventLoop. The loop blocks in the X
// read between events, so Quit nudges the connection with a wake property
// change; the wake callback then breaks the loop from its own goroutine.
func (c *Connection) Quit() {
	c.quitRequested.Store(true)
	// A failed nudge means the connection is gone, and then the loop is no
	// longer blocked on it.
	c.nudge()
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}

// Package engine contains the visibility decision core: one goroutine that
// fuses trigger-key edges, foreground classification and debounce expiry into
// edge-triggered show/hide calls on the panel. The decision itself is pure;
// time is injectable and the package reaches X only through the Sink
// interface.
package engine

import "time"

// Visibility timing. The debounce timer is armed for the grace delay plus a
// margin so expiry always lands after the grace window has closed; the
// recompute it forces re-derives the window from the wall clock.
const (
	// GraceDelay keeps the panel visible after the trigger key is released.
	GraceDelay = 400 * time.Millisecond
	// TimerMargin pads the debounce timer past the end of the grace window.
	TimerMargin = 50 * time.Millisecond
)

// eventBufferSize bounds the engine inbox. Sources post without blocking;
// human-rate input never comes close to filling it.
const eventBufferSize = 64

// EventType identifies an input to the decision core.
type EventType string

const (
	// KeyDown and KeyUp are trigger-key edges from the key monitor.
	KeyDown EventType = "KEY_DOWN"
	KeyUp   EventType = "KEY_UP"
	// OverlayChanged carries the foreground classification verdict.
	OverlayChanged EventType = "OVERLAY_CHANGED"
	// TimerExpired is the debounce timer firing. It carries no state of its
	// own and only forces a recompute.
	TimerExpired EventType = "TIMER_EXPIRED"
	// PanelRestarted reports that the restart watcher re-acquired the panel
	// window after the old one was destroyed.
	PanelRestarted EventType = "PANEL_RESTARTED"
	// QuitRequested stops the engine loop (tray, IPC or signal).
	QuitRequested EventType = "QUIT_REQUESTED"
)

// Event is a single input to the engine loop.
type Event struct {
	Type EventType
	// Overlay is the classification verdict; meaningful only for
	// OverlayChanged.
	Overlay bool
}

// Sink applies visibility decisions to the panel window. Calls are
// best-effort and do not fail; implementations log their own errors.
type Sink interface {
	Show()
	Hide()
}

// Status is a read-only snapshot of the engine state, published through the
// notify hook after every processed event.
type Status struct {
	Visible       bool
	Held          bool
	OverlayActive bool
	WithinGrace   bool
}

package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Options configure the engine's optional collaborators.
type Options struct {
	// OnPanelRestart re-initializes a freshly acquired panel window
	// (auto-hide mode plus an initial hide). It runs on the engine
	// goroutine, before the post-restart recompute.
	OnPanelRestart func()
	// Notify receives a status snapshot after every processed event.
	Notify func(Status)
	// Now overrides the wall clock.
	Now func() time.Time
}

// Engine owns the visibility state and the debounce timer. All state is
// confined to the Run goroutine; the only concurrent entry point is Post.
type Engine struct {
	sink   Sink
	logger *slog.Logger
	events chan Event
	now    func() time.Time

	onPanelRestart func()
	notify         func(Status)

	held          bool
	overlayActive bool
	releaseAt     time.Time // zero while the key is held or before first release
	visible       bool      // last decision applied to the sink

	timer  *time.Timer
	expiry <-chan time.Time // timer.C while armed, nil otherwise

	dropped atomic.Uint64
}

// New creates an engine around the given sink. The panel starts hidden, so
// the initial state is all-false.
func New(sink Sink, logger *slog.Logger, opts Options) *Engine {
	e := &Engine{
		sink:           sink,
		logger:         logger,
		events:         make(chan Event, eventBufferSize),
		now:            opts.Now,
		onPanelRestart: opts.OnPanelRestart,
		notify:         opts.Notify,
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.timer = time.NewTimer(GraceDelay)
	e.cancelTimer()
	return e
}

// Post enqueues an event without blocking. Sources run on other goroutines
// (the keymap sampler, xevent callbacks) and must never stall behind the
// engine; when the buffer is full the event is dropped and counted.
func (e *Engine) Post(ev Event) bool {
	select {
	case e.events <- ev:
		return true
	default:
		n := e.dropped.Add(1)
		e.logger.Warn("event buffer full, dropping", "type", string(ev.Type), "dropped_total", n)
		return false
	}
}

// Dropped returns the number of events rejected by Post so far.
func (e *Engine) Dropped() uint64 {
	return e.dropped.Load()
}

// Run processes events until a quit request or context cancellation. Every
// state mutation and every sink call happens on this goroutine.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Debug("engine started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Debug("engine stopped", "reason", ctx.Err())
			return
		case <-e.expiry:
			e.expiry = nil
			e.handle(Event{Type: TimerExpired})
		case ev := <-e.events:
			if ev.Type == QuitRequested {
				e.logger.Info("quit requested")
				return
			}
			e.handle(ev)
		}
	}
}

// handle applies one event to the state and recomputes the decision. Every
// event recomputes, not just the ones that change a field.
func (e *Engine) handle(ev Event) {
	switch ev.Type {
	case KeyDown:
		e.held = true
		e.releaseAt = time.Time{}
		e.cancelTimer()
	case KeyUp:
		e.held = false
		e.releaseAt = e.now()
		e.armTimer(GraceDelay + TimerMargin)
	case OverlayChanged:
		e.overlayActive = ev.Overlay
	case TimerExpired:
		// Nothing to mutate: the grace window is re-derived from the wall
		// clock in decide, the timer only guarantees a recompute happens
		// once the window has closed.
	case PanelRestarted:
		if e.onPanelRestart != nil {
			e.onPanelRestart()
		}
		// The re-initialized panel is unmapped again, whatever we last told
		// the old window.
		e.visible = false
	}
	e.apply()
}

// apply recomputes the decision and drives the sink on changes only. Equal
// decisions never re-touch the sink: Hide's unmap retries must not repeat.
func (e *Engine) apply() {
	show := e.decide(e.now())
	if show != e.visible {
		if show {
			e.sink.Show()
		} else {
			e.sink.Hide()
		}
		e.visible = show
	}
	if e.notify != nil {
		e.notify(e.snapshot())
	}
}

// decide is the entire visibility policy: show while the trigger key is
// held, while an overlay window has focus, or within the grace window after
// the last release.
func (e *Engine) decide(now time.Time) bool {
	return e.held || e.overlayActive || e.withinGrace(now)
}

func (e *Engine) withinGrace(now time.Time) bool {
	return !e.releaseAt.IsZero() && now.Before(e.releaseAt.Add(GraceDelay))
}

func (e *Engine) snapshot() Status {
	return Status{
		Visible:       e.visible,
		Held:          e.held,
		OverlayActive: e.overlayActive,
		WithinGrace:   e.withinGrace(e.now()),
	}
}

// armTimer schedules an expiry d from now, replacing any pending one.
func (e *Engine) armTimer(d time.Duration) {
	e.cancelTimer()
	e.timer.Reset(d)
	e.expiry = e.timer.C
}

// cancelTimer stops the timer and drains a fired-but-undelivered tick so a
// later Reset cannot deliver a stale expiry. While expiry is nil the loop
// select ignores the channel entirely.
func (e *Engine) cancelTimer() {
	if !e.timer.Stop() {
		select {
		case <-e.timer.C:
		default:
		}
	}
	e.expiry = nil
}

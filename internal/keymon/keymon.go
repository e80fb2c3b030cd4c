// Package keymon watches the global trigger-key state without grabbing the
// keyboard. A dedicated goroutine polls the X keymap on a fixed interval
// over its own connection and synthesizes KeyDown/KeyUp edges for the
// engine. It does no decision work of its own.
package keymon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/1broseidon/shybar/internal/engine"
	"github.com/1broseidon/shybar/internal/x11"
)

// PollInterval is the keymap sampling cadence. 40ms keeps worst-case edge
// latency far below the grace delay while the query itself stays negligible.
const PollInterval = 40 * time.Millisecond

// triggerKeysyms are the two physical placements of the trigger modifier.
var triggerKeysyms = []string{"Super_L", "Super_R"}

// Poster is the engine inbox. Posts must not block.
type Poster interface {
	Post(ev engine.Event) bool
}

// Monitor samples the keymap and posts trigger-key edges.
type Monitor struct {
	keymap   Keymap
	poster   Poster
	keycodes []xproto.Keycode
	interval time.Duration
	logger   *slog.Logger

	down bool // last synthesized state
}

// New resolves the trigger keycodes on the sampler connection and prepares
// the monitor. It fails when neither Super placement maps to a keycode; the
// daemon has no purpose without key observation.
func New(conn *x11.Connection, poster Poster, logger *slog.Logger) (*Monitor, error) {
	keycodes := triggerKeycodes(conn.XUtil)
	if len(keycodes) == 0 {
		return nil, fmt.Errorf("no keycode maps to %s", strings.Join(triggerKeysyms, " or "))
	}

	return &Monitor{
		keymap:   &xKeymap{conn: conn.XUtil.Conn()},
		poster:   poster,
		keycodes: keycodes,
		interval: PollInterval,
		logger:   logger,
	}, nil
}

func triggerKeycodes(xu *xgbutil.XUtil) []xproto.Keycode {
	var keycodes []xproto.Keycode
	for _, keysym := range triggerKeysyms {
		keycodes = append(keycodes, keybind.StrToKeycodes(xu, keysym)...)
	}
	return keycodes
}

// Run samples the keymap until the context is canceled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Info("key monitor started", "interval", m.interval, "keycodes", len(m.keycodes))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("key monitor stopped")
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

// sample reads one snapshot and posts an event when the OR of the trigger
// keycode bits changed since the previous snapshot.
func (m *Monitor) sample() {
	keys, err := m.keymap.Snapshot()
	if err != nil {
		m.logger.Warn("keymap query failed", "error", err)
		return
	}

	down := m.anyTriggerDown(keys)
	if down == m.down {
		return
	}
	m.down = down

	if down {
		m.poster.Post(engine.Event{Type: engine.KeyDown})
	} else {
		m.poster.Post(engine.Event{Type: engine.KeyUp})
	}
}

func (m *Monitor) anyTriggerDown(keys [32]byte) bool {
	for _, kc := range m.keycodes {
		if keys[kc>>3]&(1<<(kc&7)) != 0 {
			return true
		}
	}
	return false
}

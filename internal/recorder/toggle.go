package recorder

import (
	"context"
	"sync"
	"time"

	"github.com/banshee-data/gesture.vault/internal/timeutil"
)

// DefaultDebounce is the minimum spacing between accepted button presses.
const DefaultDebounce = 200 * time.Millisecond

// Toggle is the level-triggered record request driven by the user button.
// Each accepted press flips it; presses closer than the debounce interval
// to the previous accepted press are ignored.
type Toggle struct {
	clock    timeutil.Clock
	debounce time.Duration

	mu        sync.Mutex
	requested bool
	lastPress time.Time
	pressed   bool
	changed   chan struct{}
}

// NewToggle returns a toggle in the not-requested state.
func NewToggle(clock timeutil.Clock, debounce time.Duration) *Toggle {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Toggle{clock: clock, debounce: debounce, changed: make(chan struct{}, 1)}
}

// Press registers a button edge and reports whether it was accepted.
func (t *Toggle) Press() bool {
	now := t.clock.Now()
	t.mu.Lock()
	if t.pressed && now.Sub(t.lastPress) < t.debounce {
		t.mu.Unlock()
		return false
	}
	t.pressed = true
	t.lastPress = now
	t.requested = !t.requested
	t.mu.Unlock()
	t.notify()
	return true
}

// Set forces the request state, bypassing the debounce. Used when a
// recording ends on its own and by the HTTP controls.
func (t *Toggle) Set(on bool) {
	t.mu.Lock()
	changed := t.requested != on
	t.requested = on
	t.mu.Unlock()
	if changed {
		t.notify()
	}
}

// Requested reports whether recording is currently requested.
func (t *Toggle) Requested() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.requested
}

// Wait blocks until the toggle reaches state on or ctx is done.
func (t *Toggle) Wait(ctx context.Context, on bool) error {
	for {
		if t.Requested() == on {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.changed:
		}
	}
}

func (t *Toggle) notify() {
	select {
	case t.changed <- struct{}{}:
	default:
	}
}

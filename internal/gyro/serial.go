package gyro

import (
	"context"
	"errors"
	"time"

	"github.com/banshee-data/gesture.vault/internal/monitoring"
	"github.com/banshee-data/gesture.vault/internal/timeutil"
)

// ErrSourceClosed is returned once the line subscription has been closed.
var ErrSourceClosed = errors.New("gyro: source closed")

// Subscriber is the part of serialmux.SerialMuxInterface the serial source
// needs.
type Subscriber interface {
	Subscribe() (string, chan string)
	Unsubscribe(string)
}

// SerialSource reads samples from a serial line subscription. Lines that
// are not samples (button edges, config replies) are skipped without
// resetting the per-sample wait.
type SerialSource struct {
	sub     Subscriber
	id      string
	lines   chan string
	clock   timeutil.Clock
	timeout time.Duration
}

// NewSerialSource subscribes to sub. timeout bounds the wait for each
// sample; zero waits indefinitely.
func NewSerialSource(sub Subscriber, clock timeutil.Clock, timeout time.Duration) *SerialSource {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	id, ch := sub.Subscribe()
	return &SerialSource{sub: sub, id: id, lines: ch, clock: clock, timeout: timeout}
}

// Reset discards any lines buffered since the last read, so a new
// recording starts from fresh samples.
func (s *SerialSource) Reset() {
	n := 0
	defer func() { monitoring.Debugf("gyro: discarded %d buffered lines", n) }()
	for {
		select {
		case _, ok := <-s.lines:
			if !ok {
				return
			}
			n++
		default:
			return
		}
	}
}

// ReadAxes waits for the next sample line.
func (s *SerialSource) ReadAxes(ctx context.Context) (Reading, error) {
	var expired <-chan time.Time
	if s.timeout > 0 {
		t := s.clock.NewTimer(s.timeout)
		defer t.Stop()
		expired = t.C()
	}
	for {
		select {
		case <-ctx.Done():
			return Reading{}, ctx.Err()
		case <-expired:
			return Reading{}, ErrSampleTimeout
		case line, ok := <-s.lines:
			if !ok {
				return Reading{}, ErrSourceClosed
			}
			if !isSampleLine(line) {
				continue
			}
			r, err := ParseLine(line)
			if err != nil {
				monitoring.Debugf("gyro: skipping %v", err)
				continue
			}
			return r, nil
		}
	}
}

// Close unsubscribes from the mux.
func (s *SerialSource) Close() error {
	s.sub.Unsubscribe(s.id)
	return nil
}

func isSampleLine(line string) bool {
	if len(line) < 2 {
		return false
	}
	switch line[:2] {
	case "g,", "r,", `{"`:
		return true
	}
	return false
}

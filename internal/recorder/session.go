// Package recorder runs bounded recording sessions: it fills a fresh
// sample buffer from a gyro source while the record toggle is on.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/gesture.vault/internal/gesture"
	"github.com/banshee-data/gesture.vault/internal/gyro"
	"github.com/banshee-data/gesture.vault/internal/monitoring"
	"github.com/banshee-data/gesture.vault/internal/timeutil"
)

// StopReason records why a session ended.
type StopReason string

const (
	StopToggle      StopReason = "toggle"       // user released the record request
	StopFull        StopReason = "buffer_full"  // capacity reached
	StopCancelled   StopReason = "cancelled"    // context done
	StopSourceError StopReason = "source_error" // sample source failed
)

// Session is the context of one recording. Nothing in it outlives the
// recording; the next session gets a new buffer.
type Session struct {
	ID       uuid.UUID
	Started  time.Time
	Ended    time.Time
	Buffer   *gesture.Buffer
	Timeouts int
	Reason   StopReason
	Err      error
}

// Samples returns the number of recorded samples.
func (s *Session) Samples() int { return s.Buffer.Len() }

// Duration returns the wall time the session ran for.
func (s *Session) Duration() time.Duration { return s.Ended.Sub(s.Started) }

func (s *Session) String() string {
	return fmt.Sprintf("session %s: %d samples, %d timeouts, stopped by %s after %s",
		s.ID, s.Samples(), s.Timeouts, s.Reason, s.Duration())
}

// Recorder produces sessions from a source.
type Recorder struct {
	Source   gyro.Source
	Toggle   *Toggle
	Clock    timeutil.Clock
	Capacity int
}

// NewSession allocates an empty session with a new ID.
func (r *Recorder) NewSession() *Session {
	return &Session{
		ID:      uuid.New(),
		Started: r.clock().Now(),
		Buffer:  gesture.NewBuffer(r.Capacity),
	}
}

func (r *Recorder) clock() timeutil.Clock {
	if r.Clock == nil {
		return timeutil.RealClock{}
	}
	return r.Clock
}

// Record runs one session. It reads samples while the toggle stays on and
// the buffer has room. A timed-out sample is skipped without consuming a
// buffer slot. When the buffer fills the toggle is switched off. The
// session is returned even on error; the error is non-nil only when ctx
// ended the recording.
func (r *Recorder) Record(ctx context.Context) (*Session, error) {
	s := r.NewSession()
	if rs, ok := r.Source.(interface{ Reset() }); ok {
		rs.Reset()
	}
	monitoring.Logf("recorder: %s started", s.ID)

	defer func() {
		s.Ended = r.clock().Now()
		monitoring.Logf("recorder: %s", s)
	}()

	for {
		if !r.Toggle.Requested() {
			s.Reason = StopToggle
			return s, nil
		}
		if s.Buffer.Full() {
			s.Reason = StopFull
			r.Toggle.Set(false)
			return s, nil
		}

		reading, err := r.Source.ReadAxes(ctx)
		switch {
		case err == nil:
		case errors.Is(err, gyro.ErrSampleTimeout):
			s.Timeouts++
			monitoring.Debugf("recorder: %s sample %d timed out", s.ID, s.Buffer.Len())
			continue
		case ctx.Err() != nil:
			s.Reason = StopCancelled
			return s, ctx.Err()
		default:
			s.Reason = StopSourceError
			s.Err = err
			r.Toggle.Set(false)
			return s, nil
		}
		s.Buffer.Append(reading.X, reading.Y, reading.Z)
	}
}

package gyro

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/gesture.vault/internal/timeutil"
)

// LoadTrace reads recorded samples, one per line, in any form ParseLine
// accepts. Blank lines and lines starting with '#' are ignored, as is a
// leading header line such as "x,y,z".
func LoadTrace(r io.Reader) ([]Reading, error) {
	var out []Reading
	scan := bufio.NewScanner(r)
	lineNo := 0
	for scan.Scan() {
		lineNo++
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		reading, err := ParseLine(line)
		if err != nil {
			if len(out) == 0 && !strings.ContainsAny(line, "0123456789") {
				continue // header
			}
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, reading)
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadTraceFile is LoadTrace over a file.
func LoadTraceFile(path string) ([]Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	readings, err := LoadTrace(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return readings, nil
}

// ReplaySource plays back a recorded trace at a fixed sample period. Once
// the trace is exhausted it returns io.EOF, or starts over when Loop is
// set.
type ReplaySource struct {
	mu      sync.Mutex
	samples []Reading
	pos     int
	clock   timeutil.Clock
	period  time.Duration
	Loop    bool
}

// NewReplaySource returns a source over samples paced by clock.
func NewReplaySource(samples []Reading, clock timeutil.Clock, period time.Duration) *ReplaySource {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &ReplaySource{samples: samples, clock: clock, period: period}
}

// ReadAxes sleeps one period and returns the next sample.
func (s *ReplaySource) ReadAxes(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.samples) {
		if !s.Loop || len(s.samples) == 0 {
			return Reading{}, io.EOF
		}
		s.pos = 0
	}
	if s.period > 0 {
		s.clock.Sleep(s.period)
	}
	r := s.samples[s.pos]
	s.pos++
	return r, nil
}

// Reset restarts playback from the first sample.
func (s *ReplaySource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = 0
}

// Len returns the number of samples in the trace.
func (s *ReplaySource) Len() int { return len(s.samples) }

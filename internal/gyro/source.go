// Package gyro turns the gyroscope bridge's output into angular velocity
// readings in rad/s. It decodes raw register frames and text lines,
// filters and bias-corrects the stream, and provides live and replayed
// sample sources for the recorder.
package gyro

import (
	"context"
	"errors"
	"fmt"
)

// ErrSampleTimeout is returned by a Source when no sample arrived within
// its per-sample wait. Recorders skip the iteration and carry on.
var ErrSampleTimeout = errors.New("gyro: sample timeout")

// Reading is one angular velocity sample in rad/s.
type Reading struct {
	X, Y, Z float64
}

func (r Reading) String() string {
	return fmt.Sprintf("gx=%.6f, gy=%.6f, gz=%.6f", r.X, r.Y, r.Z)
}

// Sub returns r - o per axis.
func (r Reading) Sub(o Reading) Reading {
	return Reading{X: r.X - o.X, Y: r.Y - o.Y, Z: r.Z - o.Z}
}

// Source yields readings one at a time. ReadAxes blocks until a sample is
// available, the source's per-sample wait expires (ErrSampleTimeout) or ctx
// is done.
type Source interface {
	ReadAxes(ctx context.Context) (Reading, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Reading, error)

func (f SourceFunc) ReadAxes(ctx context.Context) (Reading, error) { return f(ctx) }

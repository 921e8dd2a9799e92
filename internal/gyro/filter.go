package gyro

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/gesture.vault/internal/monitoring"
)

// LowPass is a first-order exponential moving average applied per axis:
// y = alpha*x + (1-alpha)*y_prev. The first sample seeds the state.
type LowPass struct {
	alpha  float64
	state  Reading
	primed bool
}

// NewLowPass returns a filter with coefficient alpha. Values outside (0, 1]
// disable filtering.
func NewLowPass(alpha float64) *LowPass {
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	return &LowPass{alpha: alpha}
}

// Apply filters r and returns the smoothed reading.
func (f *LowPass) Apply(r Reading) Reading {
	if !f.primed {
		f.state, f.primed = r, true
		return r
	}
	a := f.alpha
	f.state = Reading{
		X: a*r.X + (1-a)*f.state.X,
		Y: a*r.Y + (1-a)*f.state.Y,
		Z: a*r.Z + (1-a)*f.state.Z,
	}
	return f.state
}

// Reset forgets the filter state so the next sample seeds it again.
func (f *LowPass) Reset() { f.primed = false }

// Calibrate reads n samples from src while the device is held still and
// returns their per-axis mean. Timed-out samples are skipped and do not
// count towards n; any other error aborts calibration.
func Calibrate(ctx context.Context, src Source, n int) (Reading, error) {
	if n <= 0 {
		return Reading{}, nil
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	zs := make([]float64, 0, n)
	for len(xs) < n {
		r, err := src.ReadAxes(ctx)
		if errors.Is(err, ErrSampleTimeout) {
			continue
		}
		if err != nil {
			return Reading{}, fmt.Errorf("calibration after %d samples: %w", len(xs), err)
		}
		xs = append(xs, r.X)
		ys = append(ys, r.Y)
		zs = append(zs, r.Z)
	}
	bias := Reading{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil), Z: stat.Mean(zs, nil)}
	monitoring.Logf("gyro: calibrated bias %s (sd %.4f/%.4f/%.4f over %d samples)",
		bias, stat.StdDev(xs, nil), stat.StdDev(ys, nil), stat.StdDev(zs, nil), n)
	return bias, nil
}

// Conditioned wraps a source with bias subtraction followed by the
// low-pass filter. It is what the recorder reads from.
type Conditioned struct {
	Source Source
	Bias   Reading
	Filter *LowPass // nil disables filtering
}

// ReadAxes reads one sample from the wrapped source and conditions it.
// Errors pass through untouched.
func (c *Conditioned) ReadAxes(ctx context.Context) (Reading, error) {
	r, err := c.Source.ReadAxes(ctx)
	if err != nil {
		return Reading{}, err
	}
	r = r.Sub(c.Bias)
	if c.Filter != nil {
		r = c.Filter.Apply(r)
	}
	return r, nil
}

// Reset clears the filter state between recordings and resets the wrapped
// source when it supports it.
func (c *Conditioned) Reset() {
	if c.Filter != nil {
		c.Filter.Reset()
	}
	if r, ok := c.Source.(interface{ Reset() }); ok {
		r.Reset()
	}
}

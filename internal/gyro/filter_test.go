package gyro

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gesture.vault/internal/monitoring"
)

func quiet(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

func sliceSource(readings []Reading, errs map[int]error) Source {
	i := 0
	return SourceFunc(func(ctx context.Context) (Reading, error) {
		defer func() { i++ }()
		if err, ok := errs[i]; ok {
			return Reading{}, err
		}
		if i >= len(readings) {
			return Reading{}, errors.New("exhausted")
		}
		return readings[i], nil
	})
}

func TestLowPass(t *testing.T) {
	f := NewLowPass(0.5)
	assert.Equal(t, Reading{X: 1, Y: -1}, f.Apply(Reading{X: 1, Y: -1}))
	assert.Equal(t, Reading{X: 0.5, Y: -0.5, Z: 1}, f.Apply(Reading{Z: 2}))
	assert.Equal(t, Reading{X: 0.25, Y: -0.25, Z: 0.5}, f.Apply(Reading{}))

	f.Reset()
	assert.Equal(t, Reading{X: 4}, f.Apply(Reading{X: 4}), "reset reseeds from the next sample")
}

func TestLowPass_Disabled(t *testing.T) {
	for _, alpha := range []float64{0, -1, 2} {
		f := NewLowPass(alpha)
		f.Apply(Reading{X: 5})
		assert.Equal(t, Reading{X: 1}, f.Apply(Reading{X: 1}), "alpha %v", alpha)
	}
}

func TestCalibrate(t *testing.T) {
	quiet(t)
	src := sliceSource([]Reading{
		{X: 0.01, Y: -0.02, Z: 0.03},
		{X: 0.03, Y: -0.04, Z: 0.01},
		{X: 0.02, Y: -0.03, Z: 0.02},
	}, nil)

	// the second call times out, so the three readings take four calls
	bias, err := Calibrate(context.Background(), &timeoutShift{src: src}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, bias.X, 1e-12)
	assert.InDelta(t, -0.03, bias.Y, 1e-12)
	assert.InDelta(t, 0.02, bias.Z, 1e-12)
}

// timeoutShift replays src but keeps the reading index stable across a
// timeout, like a real sensor that simply had nothing to say.
type timeoutShift struct {
	src   Source
	calls int
}

func (s *timeoutShift) ReadAxes(ctx context.Context) (Reading, error) {
	s.calls++
	if s.calls == 2 {
		return Reading{}, ErrSampleTimeout
	}
	return s.src.ReadAxes(ctx)
}

func TestCalibrate_Error(t *testing.T) {
	quiet(t)
	_, err := Calibrate(context.Background(), sliceSource(nil, nil), 5)
	assert.Error(t, err)

	bias, err := Calibrate(context.Background(), sliceSource(nil, nil), 0)
	require.NoError(t, err)
	assert.Equal(t, Reading{}, bias)
}

type resettable struct {
	Source
	resets int
}

func (r *resettable) Reset() { r.resets++ }

func TestConditioned(t *testing.T) {
	inner := &resettable{Source: sliceSource([]Reading{{X: 1.1, Y: 0.1}, {X: 0.1, Y: 0.1}}, nil)}
	c := &Conditioned{Source: inner, Bias: Reading{X: 0.1, Y: 0.1}, Filter: NewLowPass(0.5)}

	r, err := c.ReadAxes(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, r.X, 1e-12)
	assert.InDelta(t, 0.0, r.Y, 1e-12)

	r, err = c.ReadAxes(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r.X, 1e-12)

	c.Reset()
	assert.Equal(t, 1, inner.resets)

	_, err = c.ReadAxes(context.Background())
	assert.Error(t, err, "errors from the wrapped source pass through")
}

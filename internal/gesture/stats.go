package gesture

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// AxisStats summarises the samples of one axis.
type AxisStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	// Peak is the largest absolute value.
	Peak float64 `json:"peak"`
}

// TraceStats holds AxisStats for X, Y and Z.
type TraceStats [3]AxisStats

// Stats computes per-axis summaries of the recorded samples. An empty buffer
// yields zero stats.
func Stats(b *Buffer) TraceStats {
	var ts TraceStats
	if b.Len() == 0 {
		return ts
	}
	for _, a := range Axes {
		v := b.Axis(a)
		mn, mx := floats.Min(v), floats.Max(v)
		ts[a] = AxisStats{
			Min:  mn,
			Max:  mx,
			Mean: floats.Sum(v) / float64(len(v)),
			Peak: math.Max(math.Abs(mn), math.Abs(mx)),
		}
	}
	return ts
}

// Quiet reports whether no axis ever exceeded the cutoff, i.e. the user
// never moved the device during the recording.
func (ts TraceStats) Quiet(cutoff float64) bool {
	for _, s := range ts {
		if s.Peak > cutoff {
			return false
		}
	}
	return true
}

package gesture

import "fmt"

// Params are the thresholds that turn a recording into a signature.
type Params struct {
	// MagnitudeCutoff is the angular velocity (rad/s) below which a sample
	// counts as no motion.
	MagnitudeCutoff float64
	// MinRunLength is the number of consecutive samples a segment must last.
	MinRunLength int
	// GapThreshold is the largest end index distance between consecutive
	// symbols that still places them in the same group.
	GapThreshold int
	// Ordering arranges the tokens inside each group.
	Ordering Ordering
}

// DefaultParams returns the thresholds used by the reference device.
func DefaultParams() Params {
	return Params{
		MagnitudeCutoff: 0.2,
		MinRunLength:    50,
		GapThreshold:    40,
		Ordering:        OrderAxisPriority,
	}
}

func (p Params) String() string {
	return fmt.Sprintf("cutoff=%.3f min_run=%d gap=%d order=%s",
		p.MagnitudeCutoff, p.MinRunLength, p.GapThreshold, p.Ordering)
}

// Result carries every intermediate product of one reduction so callers can
// log or display the per-axis patterns alongside the signature.
type Result struct {
	Samples   int
	Patterns  [3]AxisPattern
	Stream    Stream
	Signature Signature
}

// Pattern returns the extracted pattern for one axis.
func (r Result) Pattern(a Axis) AxisPattern { return r.Patterns[a] }

// Process runs the whole reduction over the recorded part of b. The result
// depends only on the samples and p.
func Process(b *Buffer, p Params) Result {
	var r Result
	r.Samples = b.Len()
	for _, a := range Axes {
		r.Patterns[a] = Extract(b.Axis(a), p.MinRunLength, p.MagnitudeCutoff)
	}
	r.Stream = Merge(r.Patterns[AxisX], r.Patterns[AxisY], r.Patterns[AxisZ], p.GapThreshold)
	r.Signature = p.Ordering.Apply(r.Stream.Signature())
	return r
}

package gesture

import "strings"

// AxisPattern is the ordered sign segments found on one axis together with
// the sample index at which each segment ended.
type AxisPattern struct {
	Signs      []Sign
	EndIndices []int
}

// Len returns the number of segments.
func (p AxisPattern) Len() int { return len(p.Signs) }

// String renders the signs only, e.g. "+-+".
func (p AxisPattern) String() string {
	var sb strings.Builder
	for _, s := range p.Signs {
		sb.WriteByte(byte(s))
	}
	return sb.String()
}

func (p *AxisPattern) push(s Sign, end int) {
	p.Signs = append(p.Signs, s)
	p.EndIndices = append(p.EndIndices, end)
}

// Extract collapses a single-axis sample sequence into its sign segments.
//
// Each sample is classified as positive above cutoff, negative below -cutoff
// and zero otherwise. A run of equal classifications is kept when it lasts at
// least minRun samples and is tagged with the index of its last sample. Zero
// runs are then dropped, as are repeats of the previously kept sign, so the
// result strictly alternates between '+' and '-'.
func Extract(samples []float64, minRun int, cutoff float64) AxisPattern {
	if minRun < 1 {
		minRun = 1
	}

	var runs AxisPattern
	var last Sign
	count := 0
	for i, v := range samples {
		s := classify(v, cutoff)
		if s == last {
			count++
			continue
		}
		if count >= minRun {
			runs.push(last, i-1)
		}
		last = s
		count = 1
	}
	if count >= minRun {
		runs.push(last, len(samples)-1)
	}

	var out AxisPattern
	var kept Sign
	for i, s := range runs.Signs {
		if s == SignZero || s == kept {
			continue
		}
		out.push(s, runs.EndIndices[i])
		kept = s
	}
	return out
}

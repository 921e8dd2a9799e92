package gesture

import (
	"math"
	"strings"
)

// exhausted stands in for the next end index of an axis with no segments
// left, so it never wins the minimum.
const exhausted = math.MaxInt

// Symbol is one axis segment placed in the merged stream.
type Symbol struct {
	Axis     Axis
	Sign     Sign
	EndIndex int
}

// Token drops the timing information from the symbol.
func (s Symbol) Token() Token { return Token{Axis: s.Axis, Sign: s.Sign} }

// Stream is the chronologically merged output of the three axis patterns,
// partitioned into groups of temporally co-located symbols.
type Stream struct {
	Groups [][]Symbol
}

// Symbols flattens the stream in emission order.
func (s Stream) Symbols() []Symbol {
	var out []Symbol
	for _, g := range s.Groups {
		out = append(out, g...)
	}
	return out
}

// String renders the stream in the textual signature format, e.g.
// "X+,Y-Z+,X-". The tokens are in emission order, not canonical order.
func (s Stream) String() string {
	var sb strings.Builder
	for i, g := range s.Groups {
		if i > 0 {
			sb.WriteByte(',')
		}
		for _, sym := range g {
			sb.WriteString(sym.Axis.String())
			sb.WriteByte(byte(sym.Sign))
		}
	}
	return sb.String()
}

// Signature converts the stream to a signature without reordering.
func (s Stream) Signature() Signature {
	sig := make(Signature, 0, len(s.Groups))
	for _, g := range s.Groups {
		group := make(Group, len(g))
		for i, sym := range g {
			group[i] = sym.Token()
		}
		sig = append(sig, group)
	}
	return sig
}

// Merge interleaves the three axis patterns by segment end index. On equal
// end indices X is taken before Y and Y before Z. A new group is started
// whenever a symbol ends more than gap samples after the previously emitted
// one; the first symbol always opens the first group.
func Merge(x, y, z AxisPattern, gap int) Stream {
	patterns := [3]AxisPattern{x, y, z}
	var cursors [3]int

	head := func(a int) int {
		if cursors[a] >= patterns[a].Len() {
			return exhausted
		}
		return patterns[a].EndIndices[cursors[a]]
	}

	var out Stream
	prev := 0
	for {
		next, best := -1, exhausted
		for a := range patterns {
			// strict comparison keeps the lower axis on ties
			if h := head(a); h < best {
				next, best = a, h
			}
		}
		if next < 0 {
			break
		}

		if len(out.Groups) == 0 || best-prev > gap {
			out.Groups = append(out.Groups, nil)
		}
		last := len(out.Groups) - 1
		out.Groups[last] = append(out.Groups[last], Symbol{
			Axis:     Axis(next),
			Sign:     patterns[next].Signs[cursors[next]],
			EndIndex: best,
		})

		prev = best
		cursors[next]++
	}
	return out
}

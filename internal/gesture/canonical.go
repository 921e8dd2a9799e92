package gesture

import (
	"fmt"
	"sort"
	"strings"
)

// Ordering selects how tokens inside a group are arranged. Both orderings
// are group-local, deterministic and idempotent. They agree whenever a group
// has at most one token per axis and differ otherwise, so signatures produced
// under different orderings must not be compared.
type Ordering int

const (
	// OrderAxisPriority sorts tokens by axis (X, Y, Z) and keeps the arrival
	// order of tokens that share an axis.
	OrderAxisPriority Ordering = iota
	// OrderLexicographic sorts the two-character tokens as strings.
	OrderLexicographic
)

func (o Ordering) String() string {
	switch o {
	case OrderAxisPriority:
		return "axis"
	case OrderLexicographic:
		return "lexicographic"
	default:
		return fmt.Sprintf("Ordering(%d)", int(o))
	}
}

// ParseOrdering accepts the config spellings of an ordering.
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "axis", "axis-priority", "axis_priority":
		return OrderAxisPriority, nil
	case "lex", "lexicographic":
		return OrderLexicographic, nil
	}
	return 0, fmt.Errorf("unknown canonical ordering %q: expected axis or lexicographic", s)
}

// Apply returns a copy of sig with every group reordered. Empty groups are
// dropped; group count and order are otherwise unchanged.
func (o Ordering) Apply(sig Signature) Signature {
	out := make(Signature, 0, len(sig))
	for _, g := range sig {
		if len(g) == 0 {
			continue
		}
		group := append(Group(nil), g...)
		switch o {
		case OrderLexicographic:
			sort.SliceStable(group, func(i, j int) bool {
				return group[i].String() < group[j].String()
			})
		default:
			sort.SliceStable(group, func(i, j int) bool {
				return group[i].Axis < group[j].Axis
			})
		}
		out = append(out, group)
	}
	return out
}

// Canonicalize parses a textual signature, reorders each group and renders
// it back.
func (o Ordering) Canonicalize(s string) (string, error) {
	sig, err := ParseSignature(s)
	if err != nil {
		return "", err
	}
	return o.Apply(sig).String(), nil
}

// MarshalText encodes the ordering as its config spelling.
func (o Ordering) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText accepts any spelling ParseOrdering does.
func (o *Ordering) UnmarshalText(b []byte) error {
	v, err := ParseOrdering(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

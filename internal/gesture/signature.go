package gesture

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidToken is returned when a textual signature contains something
// other than <AXIS><SIGN> pairs separated by commas.
var ErrInvalidToken = errors.New("invalid signature token")

// Token is an (axis, sign) pair, written as two characters such as "Y-".
type Token struct {
	Axis Axis
	Sign Sign
}

func (t Token) String() string { return t.Axis.String() + t.Sign.String() }

// Group is the set of tokens that fell into one timing cluster.
type Group []Token

func (g Group) String() string {
	var sb strings.Builder
	for _, t := range g {
		sb.WriteString(t.String())
	}
	return sb.String()
}

// Signature is an ordered sequence of groups. Its String form is the only
// persisted artifact of a recording.
type Signature []Group

func (s Signature) String() string {
	parts := make([]string, len(s))
	for i, g := range s {
		parts[i] = g.String()
	}
	return strings.Join(parts, ",")
}

// Empty reports whether the signature has no tokens at all.
func (s Signature) Empty() bool { return s.Tokens() == 0 }

// Tokens returns the total number of tokens over all groups.
func (s Signature) Tokens() int {
	n := 0
	for _, g := range s {
		n += len(g)
	}
	return n
}

// ParseSignature reads the textual signature format. Empty groups, including
// the leading separator some firmware builds emitted, are dropped.
func ParseSignature(s string) (Signature, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Signature{}, nil
	}

	var sig Signature
	for _, part := range strings.Split(s, ",") {
		if part == "" {
			continue
		}
		if len(part)%2 != 0 {
			return nil, fmt.Errorf("%w: group %q has odd length", ErrInvalidToken, part)
		}
		group := make(Group, 0, len(part)/2)
		for i := 0; i < len(part); i += 2 {
			axis, ok := ParseAxis(part[i])
			if !ok {
				return nil, fmt.Errorf("%w: unknown axis %q in group %q", ErrInvalidToken, part[i], part)
			}
			sign, ok := ParseSign(part[i+1])
			if !ok {
				return nil, fmt.Errorf("%w: unknown sign %q in group %q", ErrInvalidToken, part[i+1], part)
			}
			group = append(group, Token{Axis: axis, Sign: sign})
		}
		sig = append(sig, group)
	}
	if sig == nil {
		sig = Signature{}
	}
	return sig, nil
}

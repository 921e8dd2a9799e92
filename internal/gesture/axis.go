// Package gesture reduces 3-axis angular-velocity traces to symbolic
// signatures. A trace is split per axis into sign segments, the segments are
// merged into one time-ordered stream partitioned into timing groups, and the
// groups are put into a canonical order so two recordings of the same gesture
// compare equal as plain strings.
package gesture

// Axis identifies one of the three gyroscope channels.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Axes lists the axes in merge priority order.
var Axes = [...]Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "?"
	}
}

// ParseAxis maps 'X', 'Y' or 'Z' to an Axis.
func ParseAxis(c byte) (Axis, bool) {
	switch c {
	case 'X':
		return AxisX, true
	case 'Y':
		return AxisY, true
	case 'Z':
		return AxisZ, true
	}
	return 0, false
}

// Sign is the classification of a single sample against the magnitude
// cutoff. Only SignPositive and SignNegative survive into a pattern.
type Sign byte

const (
	SignPositive Sign = '+'
	SignNegative Sign = '-'
	SignZero     Sign = '0'
)

func (s Sign) String() string { return string(rune(s)) }

// ParseSign maps '+' or '-' to a Sign. SignZero is not a valid token sign.
func ParseSign(c byte) (Sign, bool) {
	switch Sign(c) {
	case SignPositive, SignNegative:
		return Sign(c), true
	}
	return 0, false
}

func classify(v, cutoff float64) Sign {
	switch {
	case v > cutoff:
		return SignPositive
	case v < -cutoff:
		return SignNegative
	default:
		return SignZero
	}
}

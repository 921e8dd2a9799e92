package vault

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when the workflow is asked to move
// between two states that are not connected.
var ErrInvalidTransition = errors.New("invalid state transition")

// State is a step of the enrollment / verification workflow.
type State int

const (
	AwaitingEnrollment State = iota
	RecordingKey
	Enrolled
	AwaitingTest
	RecordingTest
	Matched
	Rejected
)

var stateNames = [...]string{
	AwaitingEnrollment: "AWAITING_ENROLLMENT",
	RecordingKey:       "RECORDING_KEY",
	Enrolled:           "ENROLLED",
	AwaitingTest:       "AWAITING_TEST",
	RecordingTest:      "RECORDING_TEST",
	Matched:            "MATCHED",
	Rejected:           "REJECTED",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state name for JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Recording reports whether a recording session is in progress.
func (s State) Recording() bool { return s == RecordingKey || s == RecordingTest }

// transitions lists the legal successors of each state. The workflow has
// no terminal state. Clearing the key returns to AwaitingEnrollment from
// any idle state.
var transitions = map[State][]State{
	AwaitingEnrollment: {RecordingKey},
	RecordingKey:       {Enrolled, AwaitingEnrollment},
	Enrolled:           {AwaitingTest, AwaitingEnrollment},
	AwaitingTest:       {RecordingTest, AwaitingEnrollment, RecordingKey},
	RecordingTest:      {Matched, Rejected, AwaitingTest},
	Matched:            {AwaitingTest, AwaitingEnrollment},
	Rejected:           {AwaitingTest, AwaitingEnrollment},
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Machine tracks the current workflow state.
type Machine struct {
	state State
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Transition moves to next or returns ErrInvalidTransition.
func (m *Machine) Transition(next State) error {
	if !CanTransition(m.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, next)
	}
	m.state = next
	return nil
}

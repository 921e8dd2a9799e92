package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_Workflow(t *testing.T) {
	var m Machine
	assert.Equal(t, AwaitingEnrollment, m.State())

	for _, next := range []State{RecordingKey, Enrolled, AwaitingTest, RecordingTest, Matched, AwaitingTest, RecordingTest, Rejected, AwaitingTest} {
		require.NoError(t, m.Transition(next), "to %s", next)
	}
}

func TestMachine_Invalid(t *testing.T) {
	tests := []struct{ from, to State }{
		{AwaitingEnrollment, RecordingTest},
		{AwaitingEnrollment, Enrolled},
		{RecordingKey, Matched},
		{Matched, Rejected},
		{Rejected, RecordingTest},
		{RecordingTest, AwaitingEnrollment},
	}
	for _, tt := range tests {
		m := Machine{state: tt.from}
		err := m.Transition(tt.to)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tt.from, tt.to)
		assert.Equal(t, tt.from, m.State())
	}
}

func TestState_Strings(t *testing.T) {
	assert.Equal(t, "AWAITING_ENROLLMENT", AwaitingEnrollment.String())
	assert.Equal(t, "REJECTED", Rejected.String())
	assert.Equal(t, "State(42)", State(42).String())
	assert.True(t, RecordingKey.Recording())
	assert.False(t, Matched.Recording())

	b, err := AwaitingTest.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "AWAITING_TEST", string(b))
}

func TestTransitions_NoTerminalState(t *testing.T) {
	for s := AwaitingEnrollment; s <= Rejected; s++ {
		assert.NotEmpty(t, transitions[s], "%s has no successor", s)
	}
}

package vault

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gesture.vault/internal/gesture"
	"github.com/banshee-data/gesture.vault/internal/gyro"
	"github.com/banshee-data/gesture.vault/internal/recorder"
	"github.com/banshee-data/gesture.vault/internal/timeutil"
)

type recordedNotifications struct {
	mu  sync.Mutex
	got []Notification
}

func (r *recordedNotifications) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recordedNotifications) stages() []Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Stage, len(r.got))
	for i, n := range r.got {
		out[i] = n.Stage
	}
	return out
}

func (r *recordedNotifications) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.got[len(r.got)-1]
}

type memAttempts struct{ got []Attempt }

func (m *memAttempts) RecordAttempt(a Attempt) error {
	m.got = append(m.got, a)
	return nil
}

// readings zips per-axis traces of equal length into samples.
func readings(x, y, z []float64) []gyro.Reading {
	out := make([]gyro.Reading, len(x))
	for i := range x {
		out[i] = gyro.Reading{X: x[i], Y: y[i], Z: z[i]}
	}
	return out
}

func run(level float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = level
	}
	return out
}

func cat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// scenarioD records X+, then Z+ just before Y- in one cluster, then X-.
func scenarioD() []gyro.Reading {
	x := cat(run(0.6, 80), run(0, 220), run(-0.6, 80), run(0, 20))
	y := cat(run(0, 100), run(-0.6, 80), run(0, 220))
	z := cat(run(0, 90), run(0.6, 80), run(0, 230))
	return readings(x, y, z)
}

func still(n int) []gyro.Reading { return make([]gyro.Reading, n) }

type harness struct {
	ctrl     *Controller
	vault    *Vault
	toggle   *recorder.Toggle
	source   *switchSource
	notes    *recordedNotifications
	attempts *memAttempts
}

// switchSource replays whichever trace is loaded, and stops the
// recording once it runs out, like a user pressing the button again.
type switchSource struct {
	mu     sync.Mutex
	trace  []gyro.Reading
	pos    int
	toggle *recorder.Toggle
}

func (s *switchSource) load(trace []gyro.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trace, s.pos = trace, 0
}

func (s *switchSource) ReadAxes(ctx context.Context) (gyro.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.trace) {
		s.toggle.Set(false)
		return gyro.Reading{}, gyro.ErrSampleTimeout
	}
	r := s.trace[s.pos]
	s.pos++
	return r, nil
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	clock := timeutil.NewMockClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	tg := recorder.NewToggle(clock, 0)
	src := &switchSource{toggle: tg}
	v := New(gesture.OrderAxisPriority, opts...)
	notes := &recordedNotifications{}
	attempts := &memAttempts{}
	ctrl := NewController(ControllerConfig{
		Vault:    v,
		Recorder: &recorder.Recorder{Source: src, Toggle: tg, Clock: clock, Capacity: 1000},
		Notifier: notes,
		Attempts: attempts,
	})
	return &harness{ctrl: ctrl, vault: v, toggle: tg, source: src, notes: notes, attempts: attempts}
}

func (h *harness) record(t *testing.T, trace []gyro.Reading) {
	t.Helper()
	h.source.load(trace)
	h.toggle.Set(true)
	require.NoError(t, h.ctrl.RunOnce(context.Background()))
}

func TestController_EnrollThenVerify(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, AwaitingEnrollment, h.ctrl.State())
	h.ctrl.Announce()

	h.record(t, scenarioD())
	assert.Equal(t, AwaitingTest, h.ctrl.State())
	k, ok := h.vault.Key()
	require.True(t, ok)
	assert.Equal(t, "X+,Y-Z+,X-", k.Signature)

	out, ok := h.ctrl.LastOutcome()
	require.True(t, ok)
	assert.Equal(t, Enrolled, out.State)
	assert.Equal(t, "X+,Z+Y-,X-", out.Stream)
	assert.Equal(t, "+-", out.Patterns["X"])
	assert.Equal(t, []int{79, 379}, out.EndIndices["X"])
	assert.Equal(t, 400, out.Samples)

	h.record(t, scenarioD())
	out, _ = h.ctrl.LastOutcome()
	assert.True(t, out.Matched)
	assert.Equal(t, Matched, out.State)
	assert.Equal(t, AwaitingTest, h.ctrl.State())

	h.record(t, still(200))
	out, _ = h.ctrl.LastOutcome()
	assert.False(t, out.Matched)
	assert.Equal(t, Rejected, out.State)

	assert.Equal(t, []Stage{
		StageAwaitingEnrollment,
		StageRecording, StageEnrolled, StageAwaitingTest,
		StageRecording, StageMatched, StageAwaitingTest,
		StageRecording, StageRejected, StageAwaitingTest,
	}, h.notes.stages())

	require.Len(t, h.attempts.got, 2)
	assert.True(t, h.attempts.got[0].Matched)
	assert.False(t, h.attempts.got[1].Matched)
	assert.Equal(t, "", h.attempts.got[1].Signature)
}

func TestController_WeakEnrollment(t *testing.T) {
	h := newHarness(t)
	h.record(t, still(300))

	out, _ := h.ctrl.LastOutcome()
	assert.True(t, out.Weak)
	assert.Equal(t, AwaitingTest, h.ctrl.State())

	var enrolled Notification
	for _, n := range h.notes.got {
		if n.Stage == StageEnrolled {
			enrolled = n
		}
	}
	assert.True(t, enrolled.Weak, "an empty key is flagged to the user")
}

func TestController_RejectEmptyKey(t *testing.T) {
	h := newHarness(t, WithRejectEmpty(true))
	h.record(t, still(300))

	assert.Equal(t, AwaitingEnrollment, h.ctrl.State())
	last := h.notes.last()
	assert.Equal(t, StageAwaitingEnrollment, last.Stage)
	assert.Equal(t, ErrEmptySignature.Error(), last.Payload)
}

func TestController_VerifyAfterKeyCleared(t *testing.T) {
	h := newHarness(t)
	h.record(t, scenarioD())

	// key vanishes behind the controller's back
	require.NoError(t, h.vault.Clear())
	h.record(t, scenarioD())

	out, _ := h.ctrl.LastOutcome()
	assert.False(t, out.Matched)
	assert.Equal(t, ErrNoKey.Error(), out.Error)
	assert.Equal(t, AwaitingTest, h.ctrl.State())
}

func TestController_Reset(t *testing.T) {
	h := newHarness(t)
	h.record(t, scenarioD())
	require.NoError(t, h.ctrl.Reset())
	assert.Equal(t, AwaitingEnrollment, h.ctrl.State())
	_, ok := h.vault.Key()
	assert.False(t, ok)

	// enrolling again works from the reset state
	h.record(t, scenarioD())
	assert.Equal(t, AwaitingTest, h.ctrl.State())
}

func TestController_StartsInAwaitingTestWithStoredKey(t *testing.T) {
	store := &MemoryStore{}
	require.NoError(t, store.SaveKey(Key{Signature: "X+", Ordering: gesture.OrderAxisPriority}))
	v := New(gesture.OrderAxisPriority, WithStore(store))
	require.NoError(t, v.Load())

	tg := recorder.NewToggle(nil, 0)
	ctrl := NewController(ControllerConfig{Vault: v, Recorder: &recorder.Recorder{Toggle: tg}})
	assert.Equal(t, AwaitingTest, ctrl.State())
}

func TestController_RunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.ctrl.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestController_CancelledRecordingReturnsToIdle(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.ctrl.rec.Source = gyro.SourceFunc(func(ctx context.Context) (gyro.Reading, error) {
		cancel()
		return gyro.Reading{}, ctx.Err()
	})
	h.toggle.Set(true)

	err := h.ctrl.RunOnce(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, AwaitingEnrollment, h.ctrl.State())
}

func TestController_ParamsFollowVaultOrdering(t *testing.T) {
	h := newHarness(t)
	h.ctrl.params = func() gesture.Params {
		p := gesture.DefaultParams()
		p.Ordering = gesture.OrderLexicographic
		p.GapThreshold = 10
		return p
	}
	p := h.ctrl.Params()
	assert.Equal(t, gesture.OrderAxisPriority, p.Ordering)
	assert.Equal(t, 10, p.GapThreshold)
}

func TestController_ResetBeforeRecordingStarts(t *testing.T) {
	h := newHarness(t)
	h.record(t, scenarioD())
	require.Equal(t, AwaitingTest, h.ctrl.State())

	// button already pressed when the key is cleared
	h.source.load(still(300))
	h.toggle.Set(true)
	require.NoError(t, h.ctrl.Reset())
	require.NoError(t, h.ctrl.RunOnce(context.Background()))

	out, ok := h.ctrl.LastOutcome()
	require.True(t, ok)
	assert.Equal(t, Enrolled, out.State, "the recording enrolls a new key")
	k, ok := h.vault.Key()
	require.True(t, ok)
	assert.Equal(t, "", k.Signature)
	assert.Len(t, h.attempts.got, 0)
}

func TestController_ResetRefusedUntilResultApplied(t *testing.T) {
	h := newHarness(t)
	var resetErrs []error
	h.ctrl.notifier = Notifiers{h.notes, NotifierFunc(func(n Notification) {
		if n.Stage == StageRecording || n.Stage == StageEnrolled {
			resetErrs = append(resetErrs, h.ctrl.Reset())
		}
	})}

	h.record(t, scenarioD())

	require.Len(t, resetErrs, 2)
	for _, err := range resetErrs {
		assert.ErrorIs(t, err, ErrBusy)
	}
	k, ok := h.vault.Key()
	require.True(t, ok, "the new key survives")
	assert.Equal(t, "X+,Y-Z+,X-", k.Signature)
	assert.Equal(t, AwaitingTest, h.ctrl.State())

	// once the workflow is idle again Reset goes through
	require.NoError(t, h.ctrl.Reset())
	assert.Equal(t, AwaitingEnrollment, h.ctrl.State())
}

func TestController_ResetDuringRecording(t *testing.T) {
	h := newHarness(t)
	var resetErr error
	h.ctrl.rec.Source = gyro.SourceFunc(func(ctx context.Context) (gyro.Reading, error) {
		if resetErr == nil {
			resetErr = h.ctrl.Reset()
		}
		h.toggle.Set(false)
		return gyro.Reading{}, gyro.ErrSampleTimeout
	})
	h.toggle.Set(true)

	require.NoError(t, h.ctrl.RunOnce(context.Background()))
	assert.ErrorIs(t, resetErr, ErrBusy)
	assert.Equal(t, AwaitingTest, h.ctrl.State())
}

func TestController_RunContinuesAfterRefusedRecording(t *testing.T) {
	h := newHarness(t)
	h.ctrl.machine.state = Matched
	h.toggle.Set(true)

	err := h.ctrl.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.False(t, h.toggle.Requested(), "the press is dropped")
	assert.Equal(t, Matched, h.ctrl.State())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.ctrl.Run(ctx) }()
	h.toggle.Set(true)
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestController_WeakFlagKeptAfterVerification(t *testing.T) {
	h := newHarness(t)
	h.record(t, still(300))
	h.record(t, still(300))

	out, _ := h.ctrl.LastOutcome()
	assert.True(t, out.Matched)
	last := h.notes.last()
	assert.Equal(t, StageAwaitingTest, last.Stage)
	assert.True(t, last.Weak, "the weak-key warning stays on after a test")

	h.ctrl.Announce()
	assert.True(t, h.notes.last().Weak)
}

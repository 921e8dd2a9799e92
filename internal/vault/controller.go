package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/gesture.vault/internal/gesture"
	"github.com/banshee-data/gesture.vault/internal/monitoring"
	"github.com/banshee-data/gesture.vault/internal/recorder"
)

// ErrBusy is returned by Reset while a recording is in progress.
var ErrBusy = errors.New("recording in progress")

// Attempt is one verification, kept for the attempt log.
type Attempt struct {
	RecordingID string    `json:"recording_id"`
	Signature   string    `json:"signature"`
	Matched     bool      `json:"matched"`
	Samples     int       `json:"samples"`
	Timeouts    int       `json:"timeouts"`
	Note        string    `json:"note,omitempty"`
	At          time.Time `json:"at"`
}

// AttemptSummary counts attempts by outcome.
type AttemptSummary struct {
	Total   int `json:"total"`
	Matched int `json:"matched"`
}

// AttemptLog persists verification attempts.
type AttemptLog interface {
	RecordAttempt(Attempt) error
}

// Outcome describes the most recent completed recording.
type Outcome struct {
	State       State              `json:"state"`
	RecordingID string             `json:"recording_id"`
	Samples     int                `json:"samples"`
	Timeouts    int                `json:"timeouts"`
	StopReason  string             `json:"stop_reason"`
	Patterns    map[string]string  `json:"patterns"`
	EndIndices  map[string][]int   `json:"end_indices"`
	Stream      string             `json:"stream"`
	Signature   string             `json:"signature"`
	Stats       gesture.TraceStats `json:"stats"`
	Matched     bool               `json:"matched"`
	Weak        bool               `json:"weak,omitempty"`
	Error       string             `json:"error,omitempty"`
	At          time.Time          `json:"at"`

	// Buffer is the raw recording, kept for plotting.
	Buffer *gesture.Buffer `json:"-"`
}

// Controller runs the enroll / verify workflow on a single goroutine:
// wait for the record toggle, record, reduce to a signature, then enroll
// or verify and announce the result.
type Controller struct {
	vault    *Vault
	rec      *recorder.Recorder
	params   func() gesture.Params
	notifier Notifier
	attempts AttemptLog

	mu      sync.RWMutex
	machine Machine
	busy    bool
	last    *Outcome
}

// ControllerConfig wires a Controller.
type ControllerConfig struct {
	Vault    *Vault
	Recorder *recorder.Recorder
	// Params is consulted at the start of every reduction so threshold
	// changes apply to the next recording. Nil uses gesture.DefaultParams.
	Params   func() gesture.Params
	Notifier Notifier
	Attempts AttemptLog
}

// NewController starts in AwaitingTest when the vault already holds a key
// and in AwaitingEnrollment otherwise.
func NewController(cfg ControllerConfig) *Controller {
	c := &Controller{
		vault:    cfg.Vault,
		rec:      cfg.Recorder,
		params:   cfg.Params,
		notifier: cfg.Notifier,
		attempts: cfg.Attempts,
	}
	if c.params == nil {
		c.params = gesture.DefaultParams
	}
	if c.notifier == nil {
		c.notifier = Notifiers(nil)
	}
	if _, ok := c.vault.Key(); ok {
		c.machine.state = AwaitingTest
	}
	return c
}

// State returns the current workflow state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.machine.State()
}

// LastOutcome returns the most recent recording result, if any.
func (c *Controller) LastOutcome() (Outcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return Outcome{}, false
	}
	return *c.last, true
}

// Params returns the thresholds the next recording will be reduced with.
// The ordering always follows the vault.
func (c *Controller) Params() gesture.Params {
	p := c.params()
	p.Ordering = c.vault.Ordering()
	return p
}

func (c *Controller) transition(next State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Transition(next)
}

func (c *Controller) notify(stage Stage, payload string, weak bool) {
	c.notifier.Notify(Notification{Stage: stage, Payload: payload, Weak: weak})
}

// keyWeak reports whether the enrolled key is the empty signature.
func (c *Controller) keyWeak() bool {
	k, ok := c.vault.Key()
	return ok && k.Weak()
}

// Announce re-sends the display stage for the current idle state.
func (c *Controller) Announce() {
	switch c.State() {
	case AwaitingEnrollment:
		c.notify(StageAwaitingEnrollment, "", false)
	case AwaitingTest:
		c.notify(StageAwaitingTest, "", c.keyWeak())
	}
}

// Reset forgets the enrolled key and returns to AwaitingEnrollment. It
// fails with ErrBusy from the moment a recording starts until its result
// has been applied.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if err := c.vault.Clear(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.machine.State() != AwaitingEnrollment {
		if err := c.machine.Transition(AwaitingEnrollment); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.mu.Unlock()
	monitoring.Logf("vault: key cleared")
	c.notify(StageAwaitingEnrollment, "", false)
	return nil
}

// Run announces the current stage and then runs RunOnce until ctx is done.
// A refused transition is logged and the loop carries on.
func (c *Controller) Run(ctx context.Context) error {
	c.Announce()
	for {
		err := c.RunOnce(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, ErrInvalidTransition):
			monitoring.Logf("vault: %v", err)
		default:
			return err
		}
	}
}

// begin picks the recording state from the idle state and enters it in
// one step, so a concurrent Reset either lands before (and the recording
// enrolls) or is refused.
func (c *Controller) begin() (idle, recording State, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idle = c.machine.State()
	switch idle {
	case AwaitingEnrollment:
		recording = RecordingKey
	case AwaitingTest:
		recording = RecordingTest
	default:
		return idle, idle, fmt.Errorf("%w: cannot record from %s", ErrInvalidTransition, idle)
	}
	if err := c.machine.Transition(recording); err != nil {
		return idle, idle, err
	}
	c.busy = true
	return idle, recording, nil
}

func (c *Controller) done() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// RunOnce waits for the record toggle and performs one enrollment or one
// verification, depending on the state at the moment recording starts.
func (c *Controller) RunOnce(ctx context.Context) error {
	if err := c.rec.Toggle.Wait(ctx, true); err != nil {
		return err
	}

	idle, recording, err := c.begin()
	if err != nil {
		c.rec.Toggle.Set(false)
		return err
	}
	defer c.done()
	c.notify(StageRecording, "", false)

	session, err := c.rec.Record(ctx)
	if err != nil {
		if terr := c.transition(idle); terr != nil {
			monitoring.Logf("vault: %v", terr)
		}
		return err
	}

	params := c.Params()
	result := gesture.Process(session.Buffer, params)
	out := c.outcome(session, result)
	logResult(session, result, params)

	if recording == RecordingKey {
		return c.finishEnrollment(out)
	}
	return c.finishVerification(out)
}

func (c *Controller) outcome(s *recorder.Session, r gesture.Result) *Outcome {
	out := &Outcome{
		RecordingID: s.ID.String(),
		Samples:     s.Samples(),
		Timeouts:    s.Timeouts,
		StopReason:  string(s.Reason),
		Patterns:    make(map[string]string, 3),
		EndIndices:  make(map[string][]int, 3),
		Stream:      r.Stream.String(),
		Signature:   r.Signature.String(),
		Stats:       gesture.Stats(s.Buffer),
		At:          s.Ended,
		Buffer:      s.Buffer,
	}
	for _, a := range gesture.Axes {
		p := r.Pattern(a)
		out.Patterns[a.String()] = p.String()
		out.EndIndices[a.String()] = append([]int{}, p.EndIndices...)
	}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return out
}

func (c *Controller) finishEnrollment(out *Outcome) error {
	key, err := c.vault.Enroll(out.Signature, out.RecordingID)
	if err != nil {
		monitoring.Logf("vault: enrollment refused: %v", err)
		out.Error = err.Error()
		out.State = AwaitingEnrollment
		c.setLast(out)
		if terr := c.transition(AwaitingEnrollment); terr != nil {
			return terr
		}
		c.notify(StageAwaitingEnrollment, err.Error(), false)
		return nil
	}
	out.Signature = key.Signature
	out.Weak = key.Weak()
	out.State = Enrolled
	c.setLast(out)

	if err := c.transition(Enrolled); err != nil {
		return err
	}
	c.notify(StageEnrolled, key.Signature, key.Weak())
	if err := c.transition(AwaitingTest); err != nil {
		return err
	}
	c.notify(StageAwaitingTest, "", key.Weak())
	return nil
}

func (c *Controller) finishVerification(out *Outcome) error {
	matched, err := c.vault.Verify(out.Signature)
	next, stage, payload := Rejected, StageRejected, out.Signature
	switch {
	case err != nil:
		payload = err.Error()
		out.Error = err.Error()
	case matched:
		next, stage = Matched, StageMatched
	}
	out.Matched = matched
	out.State = next
	c.setLast(out)

	if c.attempts != nil {
		a := Attempt{
			RecordingID: out.RecordingID,
			Signature:   out.Signature,
			Matched:     matched,
			Samples:     out.Samples,
			Timeouts:    out.Timeouts,
			Note:        out.Error,
			At:          out.At,
		}
		if err := c.attempts.RecordAttempt(a); err != nil {
			monitoring.Logf("vault: failed to record attempt: %v", err)
		}
	}

	if err := c.transition(next); err != nil {
		return err
	}
	c.notify(stage, payload, false)
	if err := c.transition(AwaitingTest); err != nil {
		return err
	}
	c.notify(StageAwaitingTest, "", c.keyWeak())
	return nil
}

func (c *Controller) setLast(o *Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = o
}

func logResult(s *recorder.Session, r gesture.Result, p gesture.Params) {
	for _, a := range gesture.Axes {
		pat := r.Pattern(a)
		monitoring.Logf("%s: %s ends=%v", a, pat, pat.EndIndices)
	}
	monitoring.Logf("recording %s (%s): stream %q signature %q", s.ID, p, r.Stream.String(), r.Signature.String())
}

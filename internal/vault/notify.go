package vault

// Stage is the display stage announced to the user.
type Stage string

const (
	StageAwaitingEnrollment Stage = "AWAITING_ENROLLMENT"
	StageRecording          Stage = "RECORDING"
	StageEnrolled           Stage = "ENROLLED"
	StageAwaitingTest       Stage = "AWAITING_TEST"
	StageMatched            Stage = "MATCHED"
	StageRejected           Stage = "REJECTED"
)

// Notification is one display update. Payload carries the signature,
// session summary or error text relevant to the stage.
type Notification struct {
	Stage   Stage
	Payload string
	// Weak is set on ENROLLED when the key is the empty signature.
	Weak bool
}

// Notifier receives display updates. Notify must not block for long; its
// outcome never affects the workflow.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Notifiers fans a notification out to several notifiers.
type Notifiers []Notifier

func (ns Notifiers) Notify(n Notification) {
	for _, x := range ns {
		if x != nil {
			x.Notify(n)
		}
	}
}

// Package vault holds the single enrolled gesture key, answers strict
// equality queries against it, and drives the enroll / verify workflow.
package vault

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/gesture.vault/internal/gesture"
	"github.com/banshee-data/gesture.vault/internal/monitoring"
)

var (
	// ErrNoKey is reported by Verify when nothing has been enrolled.
	ErrNoKey = errors.New("no key recorded")
	// ErrEmptySignature is returned by Enroll when empty keys are refused.
	ErrEmptySignature = errors.New("empty signature")
	// ErrOrderingMismatch is returned when a persisted key was
	// canonicalized under a different ordering than the vault uses.
	ErrOrderingMismatch = errors.New("stored key uses a different canonical ordering")
)

// Key is the enrolled signature and how it was produced.
type Key struct {
	Signature   string           `json:"signature"`
	Ordering    gesture.Ordering `json:"ordering"`
	RecordingID string           `json:"recording_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Weak reports whether the key is the empty signature, which any motionless
// recording reproduces.
func (k Key) Weak() bool { return k.Signature == "" }

// KeyStore persists the enrolled key across restarts.
type KeyStore interface {
	SaveKey(Key) error
	// LoadKey returns (Key{}, false, nil) when nothing is stored.
	LoadKey() (Key, bool, error)
	ClearKey() error
}

// Vault holds at most one enrolled key. Enrollment is serialised against
// verification.
type Vault struct {
	ordering   gesture.Ordering
	rejectWeak bool
	store      KeyStore

	mu  sync.RWMutex
	key *Key
}

// Option configures a Vault.
type Option func(*Vault)

// WithStore persists the key through s.
func WithStore(s KeyStore) Option { return func(v *Vault) { v.store = s } }

// WithRejectEmpty refuses to enroll the empty signature.
func WithRejectEmpty(reject bool) Option { return func(v *Vault) { v.rejectWeak = reject } }

// New returns an empty vault that canonicalizes with ordering.
func New(ordering gesture.Ordering, opts ...Option) *Vault {
	v := &Vault{ordering: ordering}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Load restores the key from the store. A key stored under another
// ordering is discarded and ErrOrderingMismatch returned, leaving the vault
// empty so the user enrolls again.
func (v *Vault) Load() error {
	if v.store == nil {
		return nil
	}
	k, ok, err := v.store.LoadKey()
	if err != nil {
		return fmt.Errorf("load key: %w", err)
	}
	if !ok {
		return nil
	}
	if k.Ordering != v.ordering {
		return fmt.Errorf("%w: stored %s, configured %s", ErrOrderingMismatch, k.Ordering, v.ordering)
	}
	norm, err := v.ordering.Canonicalize(k.Signature)
	if err != nil {
		return fmt.Errorf("stored key: %w", err)
	}
	k.Signature = norm

	v.mu.Lock()
	v.key = &k
	v.mu.Unlock()
	monitoring.Logf("vault: restored key %q", k.Signature)
	return nil
}

// Ordering returns the canonical ordering the vault applies.
func (v *Vault) Ordering() gesture.Ordering { return v.ordering }

// Enroll canonicalizes sig and replaces the stored key unconditionally.
// An empty signature is accepted but the returned key is Weak, unless the
// vault refuses empty keys.
func (v *Vault) Enroll(sig, recordingID string) (Key, error) {
	norm, err := v.ordering.Canonicalize(sig)
	if err != nil {
		return Key{}, err
	}
	if norm == "" && v.rejectWeak {
		return Key{}, ErrEmptySignature
	}
	k := Key{Signature: norm, Ordering: v.ordering, RecordingID: recordingID, CreatedAt: time.Now().UTC()}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.store != nil {
		if err := v.store.SaveKey(k); err != nil {
			return Key{}, fmt.Errorf("save key: %w", err)
		}
	}
	v.key = &k
	if k.Weak() {
		monitoring.Logf("vault: enrolled an empty signature; any still recording will unlock")
	} else {
		monitoring.Logf("vault: enrolled %q", k.Signature)
	}
	return k, nil
}

// Verify canonicalizes sig and compares it character for character with
// the enrolled key. Without a key it reports false and ErrNoKey. A
// malformed candidate never matches.
func (v *Vault) Verify(sig string) (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.key == nil {
		return false, ErrNoKey
	}
	norm, err := v.ordering.Canonicalize(sig)
	if err != nil {
		return false, err
	}
	return norm == v.key.Signature, nil
}

// Key returns the enrolled key.
func (v *Vault) Key() (Key, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.key == nil {
		return Key{}, false
	}
	return *v.key, true
}

// Clear forgets the enrolled key.
func (v *Vault) Clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.store != nil {
		if err := v.store.ClearKey(); err != nil {
			return fmt.Errorf("clear key: %w", err)
		}
	}
	v.key = nil
	return nil
}

// MemoryStore is an in-process KeyStore.
type MemoryStore struct {
	mu  sync.Mutex
	key *Key
}

func (m *MemoryStore) SaveKey(k Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = &k
	return nil
}

func (m *MemoryStore) LoadKey() (Key, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.key == nil {
		return Key{}, false, nil
	}
	return *m.key, true, nil
}

func (m *MemoryStore) ClearKey() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.key = nil
	return nil
}

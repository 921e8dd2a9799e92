package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/gesture.vault/internal/gesture"
	"github.com/banshee-data/gesture.vault/internal/vault"
)

var _ vault.KeyStore = (*DB)(nil)

// SaveKey replaces the single enrolled key row.
func (db *DB) SaveKey(k vault.Key) error {
	_, err := db.Exec(`
		INSERT INTO enrolled_key (id, signature, ordering, recording_id, created_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			signature = excluded.signature,
			ordering = excluded.ordering,
			recording_id = excluded.recording_id,
			created_at = excluded.created_at`,
		k.Signature, k.Ordering.String(), k.RecordingID, k.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save key: %w", err)
	}
	return nil
}

// LoadKey returns the enrolled key, or ok=false when none is stored.
func (db *DB) LoadKey() (vault.Key, bool, error) {
	var (
		k        vault.Key
		ordering string
		created  int64
	)
	err := db.QueryRow(`SELECT signature, ordering, recording_id, created_at FROM enrolled_key WHERE id = 1`).
		Scan(&k.Signature, &ordering, &k.RecordingID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return vault.Key{}, false, nil
	}
	if err != nil {
		return vault.Key{}, false, fmt.Errorf("load key: %w", err)
	}
	k.Ordering, err = gesture.ParseOrdering(ordering)
	if err != nil {
		return vault.Key{}, false, fmt.Errorf("load key: %w", err)
	}
	k.CreatedAt = time.Unix(0, created).UTC()
	return k, true, nil
}

// ClearKey deletes the enrolled key.
func (db *DB) ClearKey() error {
	if _, err := db.Exec(`DELETE FROM enrolled_key`); err != nil {
		return fmt.Errorf("clear key: %w", err)
	}
	return nil
}

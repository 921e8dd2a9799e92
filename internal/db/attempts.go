package db

import (
	"fmt"
	"time"

	"github.com/banshee-data/gesture.vault/internal/vault"
)

var _ vault.AttemptLog = (*DB)(nil)

// RecordAttempt appends a verification attempt.
func (db *DB) RecordAttempt(a vault.Attempt) error {
	at := a.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := db.Exec(
		`INSERT INTO attempts (recording_id, signature, matched, samples, timeouts, note, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.RecordingID, a.Signature, a.Matched, a.Samples, a.Timeouts, a.Note, at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// Attempts returns up to limit attempts, newest first. limit <= 0 returns
// all of them.
func (db *DB) Attempts(limit int) ([]vault.Attempt, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(
		`SELECT recording_id, signature, matched, samples, timeouts, note, at
		FROM attempts ORDER BY at DESC, attempt_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []vault.Attempt
	for rows.Next() {
		var (
			a  vault.Attempt
			at int64
		)
		if err := rows.Scan(&a.RecordingID, &a.Signature, &a.Matched, &a.Samples, &a.Timeouts, &a.Note, &at); err != nil {
			return nil, err
		}
		a.At = time.Unix(0, at).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

// SummarizeAttempts returns the attempt counts.
func (db *DB) SummarizeAttempts() (vault.AttemptSummary, error) {
	var s vault.AttemptSummary
	err := db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(matched), 0) FROM attempts`).Scan(&s.Total, &s.Matched)
	if err != nil {
		return s, fmt.Errorf("summarize attempts: %w", err)
	}
	return s, nil
}

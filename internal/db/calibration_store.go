package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/reachwell/reachwell/internal/calibration"
)

// Scope keys for persisted calibration records. Every save writes all
// three copies together with byte-identical payloads: the session-lived
// scope, the durable per-user scope, and the legacy key older consumers
// still read.
const LegacyScope = "calibration.v1"

// SessionScope returns the session-lived scope key.
func SessionScope(sessionID string) string { return "session:" + sessionID }

// UserScope returns the durable per-user scope key.
func UserScope(userID string) string { return "user:" + userID }

// ErrNotFound is returned when no record exists for a scope.
var ErrNotFound = errors.New("db: calibration record not found")

// CalibrationStore persists calibration records keyed by scope.
type CalibrationStore struct {
	db *DB
}

// NewCalibrationStore creates a CalibrationStore backed by the given database.
func NewCalibrationStore(db *DB) *CalibrationStore {
	return &CalibrationStore{db: db}
}

// Write upserts the record into every scope in a single transaction. The
// payload is marshalled once so all copies are byte-identical.
func (s *CalibrationStore) Write(rec calibration.Record, sessionID, userID string) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal calibration record: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, scope := range []string{SessionScope(sessionID), UserScope(userID), LegacyScope} {
		if _, err := tx.Exec(`
			INSERT INTO calibrations (scope, user_id, payload, updated)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(scope) DO UPDATE SET
				user_id = excluded.user_id,
				payload = excluded.payload,
				updated = excluded.updated
		`, scope, userID, string(payload)); err != nil {
			return fmt.Errorf("failed to write calibration scope %q: %w", scope, err)
		}
	}

	return tx.Commit()
}

// Load reads the record stored under a scope key.
func (s *CalibrationStore) Load(scope string) (calibration.Record, error) {
	var payload string
	err := s.db.QueryRow(
		"SELECT payload FROM calibrations WHERE scope = ?", scope,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return calibration.Record{}, ErrNotFound
	}
	if err != nil {
		return calibration.Record{}, err
	}

	var rec calibration.Record
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return calibration.Record{}, fmt.Errorf("failed to parse calibration record: %w", err)
	}
	return rec, nil
}

// SessionSummary is a persisted per-session rollup for reporting.
type SessionSummary struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	Kind          string    `json:"kind"` // "calibration" or "exercise"
	Exercise      string    `json:"exercise,omitempty"`
	Level         int       `json:"level,omitempty"`
	Frames        int64     `json:"frames"`
	MessagesShown int64     `json:"messages_shown"`
	Started       time.Time `json:"started"`
	Ended         time.Time `json:"ended"`
}

// RecordSession upserts a session summary row.
func (s *CalibrationStore) RecordSession(sum SessionSummary) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (session_id, user_id, kind, exercise, level, frames, messages_shown, started, ended)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			frames = excluded.frames,
			messages_shown = excluded.messages_shown,
			ended = excluded.ended
	`, sum.SessionID, sum.UserID, sum.Kind, sum.Exercise, sum.Level,
		sum.Frames, sum.MessagesShown, sum.Started, sum.Ended)
	if err != nil {
		return fmt.Errorf("failed to record session summary: %w", err)
	}
	return nil
}

// Sessions lists the most recent session summaries, newest first.
func (s *CalibrationStore) Sessions(limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT session_id, user_id, kind, COALESCE(exercise, ''), COALESCE(level, 0),
		       COALESCE(frames, 0), COALESCE(messages_shown, 0), started, ended
		FROM sessions ORDER BY started DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		if err := rows.Scan(&sum.SessionID, &sum.UserID, &sum.Kind, &sum.Exercise,
			&sum.Level, &sum.Frames, &sum.MessagesShown, &sum.Started, &sum.Ended); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

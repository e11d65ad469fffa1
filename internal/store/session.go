package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session end reasons.
const (
	EndReasonLost     = "lost"
	EndReasonReplaced = "replaced"
	EndReasonStopped  = "stopped"
)

// Session records how long one subject was tracked.
type Session struct {
	ID         int64
	TrackingID uint64
	StartedAt  time.Time
	EndedAt    *time.Time
	Frames     int
	EndReason  string
}

// Duration returns how long the session lasted, or has lasted so far.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.EndedAt != nil {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}

// SessionRepository stores tracking sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start inserts an open session and returns its ID.
func (r *SessionRepository) Start(trackingID uint64, at time.Time) (int64, error) {
	result, err := r.db.Exec(
		`INSERT INTO tracking_sessions (tracking_id, started_at) VALUES (?, ?)`,
		int64(trackingID), at,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// End closes a session.
func (r *SessionRepository) End(id int64, at time.Time, frames int, reason string) error {
	result, err := r.db.Exec(
		`UPDATE tracking_sessions SET ended_at = ?, frames = ?, end_reason = ? WHERE id = ?`,
		at, frames, reason, id,
	)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

// CloseOpen ends every session left open, for example after a crash.
// It returns the number of sessions closed.
func (r *SessionRepository) CloseOpen(at time.Time) (int64, error) {
	result, err := r.db.Exec(
		`UPDATE tracking_sessions SET ended_at = ?, end_reason = ? WHERE ended_at IS NULL`,
		at, EndReasonStopped,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const sessionColumns = `id, tracking_id, started_at, ended_at, frames, end_reason`

func scanSession(row rowScanner) (*Session, error) {
	s := &Session{}
	var trackingID int64
	var ended sql.NullTime
	if err := row.Scan(&s.ID, &trackingID, &s.StartedAt, &ended, &s.Frames, &s.EndReason); err != nil {
		return nil, err
	}
	s.TrackingID = uint64(trackingID)
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	return s, nil
}

// Get returns a session by ID.
func (r *SessionRepository) Get(id int64) (*Session, error) {
	s, err := scanSession(r.db.QueryRow(`SELECT `+sessionColumns+` FROM tracking_sessions WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// List returns up to limit sessions, newest first. A limit of 0 or less
// returns all sessions.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT `+sessionColumns+` FROM tracking_sessions ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

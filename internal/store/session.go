package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session represents one continuous capture run.
type Session struct {
	ID        string
	CameraID  int
	StartedAt time.Time
	EndedAt   *time.Time
	Frames    int64
	Alerts    int64
}

// SessionRepository provides CRUD operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session.
func (r *SessionRepository) Create(session *Session) error {
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, camera_id, started_at, frames, alerts)
		 VALUES (?, ?, ?, 0, 0)`,
		session.ID, session.CameraID, session.StartedAt,
	)
	return err
}

// End marks a session as finished and records its final counters.
func (r *SessionRepository) End(id string, endedAt time.Time, frames, alerts int64) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?, alerts = ? WHERE id = ?`,
		endedAt, frames, alerts, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	session := &Session{}
	var endedAt sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, camera_id, started_at, ended_at, frames, alerts
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&session.ID, &session.CameraID, &session.StartedAt, &endedAt, &session.Frames, &session.Alerts)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if endedAt.Valid {
		session.EndedAt = &endedAt.Time
	}
	return session, nil
}

// List retrieves sessions, most recent first.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, camera_id, started_at, ended_at, frames, alerts
		 FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session := &Session{}
		var endedAt sql.NullTime

		err := rows.Scan(&session.ID, &session.CameraID, &session.StartedAt, &endedAt, &session.Frames, &session.Alerts)
		if err != nil {
			return nil, err
		}

		if endedAt.Valid {
			session.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

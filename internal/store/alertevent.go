package store

import (
	"database/sql"
	"time"
)

// AlertEvent records one vocalized alert.
type AlertEvent struct {
	ID        string
	SessionID string
	Label     string
	Level     string
	Score     float64
	Message   string
	CreatedAt time.Time
}

// AlertRepository provides operations for alert events.
type AlertRepository struct {
	db *sql.DB
}

// Alerts returns the alert repository for this store.
func (s *Store) Alerts() *AlertRepository {
	return &AlertRepository{db: s.db}
}

// Insert records an alert event.
func (r *AlertRepository) Insert(event *AlertEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO alert_events (id, session_id, label, level, score, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.SessionID, event.Label, event.Level, event.Score, event.Message, event.CreatedAt,
	)
	return err
}

// ListBySession retrieves the alert events of a session, oldest first.
func (r *AlertRepository) ListBySession(sessionID string) ([]*AlertEvent, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, label, level, score, message, created_at
		 FROM alert_events WHERE session_id = ? ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*AlertEvent
	for rows.Next() {
		event := &AlertEvent{}
		err := rows.Scan(&event.ID, &event.SessionID, &event.Label, &event.Level,
			&event.Score, &event.Message, &event.CreatedAt)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountBySession returns the number of alert events in a session.
func (r *AlertRepository) CountBySession(sessionID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM alert_events WHERE session_id = ?`,
		sessionID,
	).Scan(&count)
	return count, err
}

package store

import (
	"database/sql"
	"time"
)

// Event is one logged tracking transition or clip change.
type Event struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	Clip      string    `json:"clip,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventRepository appends to and reads the tracking event log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record appends an event. A zero CreatedAt is set to now.
func (r *EventRepository) Record(e *Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	result, err := r.db.Exec(
		`INSERT INTO tracking_events (session_id, name, state, clip, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.SessionID, e.Name, e.State, e.Clip, e.CreatedAt,
	)
	if err != nil {
		return err
	}
	e.ID, err = result.LastInsertId()
	return err
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(limit int) ([]Event, error) {
	return r.query(
		`SELECT id, session_id, name, state, clip, created_at
		 FROM tracking_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
}

// BySession returns a session's events in the order they happened.
func (r *EventRepository) BySession(sessionID string) ([]Event, error) {
	return r.query(
		`SELECT id, session_id, name, state, clip, created_at
		 FROM tracking_events WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
}

func (r *EventRepository) query(q string, arg any) ([]Event, error) {
	rows, err := r.db.Query(q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Name, &e.State, &e.Clip, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

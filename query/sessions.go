package query

import (
	"fmt"
	"time"

	"apptime/entity"
)

// UpsertSession enregistre la session courante, ou met à jour sa fin et sa durée
func (db *Database) UpsertSession(session entity.SessionRecord) error {
	_, err := db.Exec(`
        INSERT INTO sessions 
        (id, start_time, end_time, duration, date) 
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET end_time=excluded.end_time, duration=excluded.duration`,
		session.ID,
		session.StartTime.UTC().Format(time.RFC3339),
		session.EndTime.UTC().Format(time.RFC3339),
		session.Seconds, // Stockage en secondes
		session.Date(),
	)
	if err != nil {
		return fmt.Errorf("UpsertSession: %w", err)
	}
	return nil
}

// RecordSession satisfies tracker.SessionRecorder
func (db *Database) RecordSession(session entity.SessionRecord) error {
	return db.UpsertSession(session)
}

// DeleteSession removes a single session from the history (irreversible)
func (db *Database) DeleteSession(id string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("DeleteSession: %w", err)
	}
	return nil
}

package store

import (
	"fmt"
	"time"
)

// maxActivityTitle caps the stored title length.
const maxActivityTitle = 200

// Activity kinds shown in the family dashboard feed.
const (
	ActivityMemoryAdded      = "memory_added"
	ActivityMemoryUpdated    = "memory_updated"
	ActivityMemoryDeleted    = "memory_deleted"
	ActivityRoutineCompleted = "routine_completed"
	ActivityProfileUpdated   = "profile_updated"
	ActivitySignedIn         = "signed_in"
)

// Activity is one entry in a patient's activity feed.
type Activity struct {
	ID        int64
	PatientID string
	ActorID   string
	Kind      string
	Title     string
	CreatedAt int64
}

// AddActivity appends an entry to the patient's feed. Truncates title to
// maxActivityTitle bytes.
func (db *DB) AddActivity(patientID, actorID, kind, title string) error {
	if len(title) > maxActivityTitle {
		title = title[:maxActivityTitle]
	}

	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO activities (patient_id, actor_id, kind, title, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, patientID, actorID, kind, title, now)
	if err != nil {
		return fmt.Errorf("add activity: %w", err)
	}
	return nil
}

// GetRecentActivities returns the newest entries of a patient's feed.
func (db *DB) GetRecentActivities(patientID string, limit int) ([]Activity, error) {
	rows, err := db.Query(`
		SELECT id, patient_id, actor_id, kind, title, created_at
		FROM activities WHERE patient_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
	`, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent activities: %w", err)
	}
	defer rows.Close()

	var acts []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.PatientID, &a.ActorID, &a.Kind, &a.Title, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		acts = append(acts, a)
	}
	return acts, rows.Err()
}

// CountActivities returns how many entries of the given kind a patient has.
func (db *DB) CountActivities(patientID, kind string) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM activities WHERE patient_id = ? AND kind = ?
	`, patientID, kind).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return count, nil
}

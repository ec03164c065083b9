package store

import (
	"database/sql"
	"fmt"
	"time"
)

// AuthSession tracks one sign-in. Tokens carry the SessionID; a token whose
// session has ended is no longer accepted.
type AuthSession struct {
	ID         int64
	SessionID  string
	UserID     string
	StartedAt  int64
	LastSeenAt int64
	EndedAt    *int64
	Status     string
}

const sessionColumns = `id, session_id, user_id, started_at, last_seen_at, ended_at, status`

// StartSession records a new active sign-in for userID.
func (db *DB) StartSession(sessionID, userID string) (*AuthSession, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		INSERT INTO auth_sessions (session_id, user_id, started_at, last_seen_at, status)
		VALUES (?, ?, ?, ?, 'active')
	`, sessionID, userID, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, _ := result.LastInsertId()
	return &AuthSession{
		ID:         id,
		SessionID:  sessionID,
		UserID:     userID,
		StartedAt:  now,
		LastSeenAt: now,
		Status:     "active",
	}, nil
}

// GetSession returns a session by its session_id, or nil if not found.
func (db *DB) GetSession(sessionID string) (*AuthSession, error) {
	var s AuthSession
	err := db.QueryRow(`SELECT `+sessionColumns+` FROM auth_sessions WHERE session_id = ?`, sessionID).
		Scan(&s.ID, &s.SessionID, &s.UserID, &s.StartedAt, &s.LastSeenAt, &s.EndedAt, &s.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// TouchSession bumps last_seen_at on an active session.
func (db *DB) TouchSession(sessionID string) error {
	_, err := db.Exec(`
		UPDATE auth_sessions SET last_seen_at = ?
		WHERE session_id = ? AND status = 'active'
	`, time.Now().UnixMilli(), sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// EndSession marks a session as ended (sign-out). Ending a session that is
// not active is an error.
func (db *DB) EndSession(sessionID string) error {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE auth_sessions SET status = 'ended', ended_at = ?
		WHERE session_id = ? AND status = 'active'
	`, now, sessionID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("no active session found for %s", sessionID)
	}
	return nil
}

// GetRecentSessions returns a user's most recent sessions, newest first.
func (db *DB) GetRecentSessions(userID string, limit int) ([]AuthSession, error) {
	rows, err := db.Query(`
		SELECT `+sessionColumns+` FROM auth_sessions
		WHERE user_id = ? ORDER BY started_at DESC, id DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []AuthSession
	for rows.Next() {
		var s AuthSession
		if err := rows.Scan(&s.ID, &s.SessionID, &s.UserID, &s.StartedAt, &s.LastSeenAt, &s.EndedAt, &s.Status); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// LastActive returns the most recent last_seen_at across a user's sessions,
// or 0 if the user never signed in.
func (db *DB) LastActive(userID string) (int64, error) {
	var last sql.NullInt64
	err := db.QueryRow(`SELECT MAX(last_seen_at) FROM auth_sessions WHERE user_id = ?`, userID).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("last active: %w", err)
	}
	return last.Int64, nil
}

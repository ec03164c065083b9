package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "accounts: patients and family members with their settings",
		SQL: `
CREATE TABLE accounts (
    id             TEXT PRIMARY KEY,
    email          TEXT NOT NULL UNIQUE,
    password_hash  TEXT NOT NULL DEFAULT '',
    name           TEXT NOT NULL,
    phone          TEXT NOT NULL DEFAULT '',
    role           TEXT NOT NULL CHECK (role IN ('patient', 'family')),
    patient_id     TEXT NOT NULL,
    relation       TEXT NOT NULL DEFAULT '',

    -- Accessibility
    font_size      INTEGER NOT NULL DEFAULT 16,
    high_contrast  INTEGER NOT NULL DEFAULT 0,
    theme          TEXT NOT NULL DEFAULT 'light' CHECK (theme IN ('light', 'dark')),

    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);

CREATE INDEX idx_accounts_patient ON accounts(patient_id);
`,
	},
	{
		Version:     2,
		Description: "auth_sessions: sign-in tracking",
		SQL: `
CREATE TABLE auth_sessions (
    id             INTEGER PRIMARY KEY,
    session_id     TEXT NOT NULL UNIQUE,
    user_id        TEXT NOT NULL,
    started_at     INTEGER NOT NULL,
    last_seen_at   INTEGER NOT NULL,
    ended_at       INTEGER,
    status         TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'ended')),

    FOREIGN KEY (user_id) REFERENCES accounts(id) ON DELETE CASCADE
);

CREATE INDEX idx_auth_sessions_user    ON auth_sessions(user_id);
CREATE INDEX idx_auth_sessions_started ON auth_sessions(started_at DESC);
`,
	},
	{
		Version:     3,
		Description: "memories: photo, voice and text journal entries",
		SQL: `
CREATE TABLE memories (
    id             TEXT PRIMARY KEY,
    owner_id       TEXT NOT NULL,
    created_by     TEXT NOT NULL DEFAULT '',
    title          TEXT NOT NULL,
    memory_date    TEXT NOT NULL,
    type           TEXT NOT NULL,
    content        TEXT NOT NULL DEFAULT '',
    location       TEXT NOT NULL DEFAULT '',
    people         TEXT NOT NULL DEFAULT '[]',
    filter         TEXT NOT NULL DEFAULT 'none',
    description    TEXT NOT NULL DEFAULT '',
    tags           TEXT NOT NULL DEFAULT '[]',
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);

CREATE INDEX idx_memories_owner_date ON memories(owner_id, memory_date DESC);
`,
	},
	{
		Version:     4,
		Description: "activities: per-patient activity feed",
		SQL: `
CREATE TABLE activities (
    id             INTEGER PRIMARY KEY,
    patient_id     TEXT NOT NULL,
    actor_id       TEXT NOT NULL DEFAULT '',
    kind           TEXT NOT NULL,
    title          TEXT NOT NULL,
    created_at     INTEGER NOT NULL
);

CREATE INDEX idx_activities_patient ON activities(patient_id, created_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}

package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Memory is a journal entry row. People and Tags are stored as JSON arrays.
type Memory struct {
	ID          string
	OwnerID     string
	CreatedBy   string
	Title       string
	Date        string // YYYY-MM-DD
	Type        string
	Content     string
	Location    string
	People      []string
	Filter      string
	Description string
	Tags        []string
	CreatedAt   int64
	UpdatedAt   int64
}

const memoryColumns = `id, owner_id, created_by, title, memory_date, type, content, location,
	people, filter, description, tags, created_at, updated_at`

func scanMemory(row interface{ Scan(...any) error }) (*Memory, error) {
	var m Memory
	var people, tags string
	err := row.Scan(&m.ID, &m.OwnerID, &m.CreatedBy, &m.Title, &m.Date, &m.Type, &m.Content, &m.Location,
		&people, &m.Filter, &m.Description, &tags, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(people), &m.People); err != nil {
		return nil, fmt.Errorf("decode people for %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &m.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", m.ID, err)
	}
	return &m, nil
}

func encodeList(l []string) (string, error) {
	if l == nil {
		l = []string{}
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// CreateMemory inserts a new memory. The caller assigns ID.
func (db *DB) CreateMemory(m *Memory) error {
	people, err := encodeList(m.People)
	if err != nil {
		return fmt.Errorf("encode people: %w", err)
	}
	tags, err := encodeList(m.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO memories (`+memoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.OwnerID, m.CreatedBy, m.Title, m.Date, m.Type, m.Content, m.Location,
		people, m.Filter, m.Description, tags, now, now)
	if err != nil {
		return fmt.Errorf("create memory: %w", err)
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	return nil
}

// GetMemory returns the owner's memory with the given id, or nil.
func (db *DB) GetMemory(ownerID, id string) (*Memory, error) {
	m, err := scanMemory(db.QueryRow(`
		SELECT `+memoryColumns+` FROM memories WHERE id = ? AND owner_id = ?
	`, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	return m, nil
}

// ListMemories returns all of an owner's memories, newest date first and
// insertion order within a date.
func (db *DB) ListMemories(ownerID string) ([]Memory, error) {
	rows, err := db.Query(`
		SELECT `+memoryColumns+` FROM memories
		WHERE owner_id = ? ORDER BY memory_date DESC, rowid
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var out []Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// UpdateMemory overwrites the editable fields of an existing memory.
func (db *DB) UpdateMemory(m *Memory) error {
	people, err := encodeList(m.People)
	if err != nil {
		return fmt.Errorf("encode people: %w", err)
	}
	tags, err := encodeList(m.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE memories SET title = ?, memory_date = ?, type = ?, content = ?, location = ?,
			people = ?, filter = ?, description = ?, tags = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`, m.Title, m.Date, m.Type, m.Content, m.Location,
		people, m.Filter, m.Description, tags, now, m.ID, m.OwnerID)
	if err != nil {
		return fmt.Errorf("update memory: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("update memory %s: %w", m.ID, ErrNotFound)
	}
	m.UpdatedAt = now
	return nil
}

// DeleteMemory removes an owner's memory.
func (db *DB) DeleteMemory(ownerID, id string) error {
	result, err := db.Exec(`DELETE FROM memories WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("delete memory %s: %w", id, ErrNotFound)
	}
	return nil
}

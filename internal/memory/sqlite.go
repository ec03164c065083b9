package memory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/memobloom/memobloom/internal/store"
	"github.com/memobloom/memobloom/internal/timeline"
)

// SQLiteStore keeps memories in the local database. The context is accepted
// for interface parity; database/sql calls on SQLite do not block on it.
type SQLiteStore struct {
	db *store.DB
}

// NewSQLiteStore wraps an open database. Close does not close db; the
// caller that opened it owns it.
func NewSQLiteStore(db *store.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Create(_ context.Context, rec Record) (Record, error) {
	rec.ID = uuid.NewString()
	row := toRow(rec)
	if err := s.db.CreateMemory(row); err != nil {
		return Record{}, err
	}
	return fromRow(row), nil
}

func (s *SQLiteStore) Get(_ context.Context, ownerID, id string) (Record, error) {
	row, err := s.db.GetMemory(ownerID, id)
	if err != nil {
		return Record{}, err
	}
	if row == nil {
		return Record{}, ErrNotFound
	}
	return fromRow(row), nil
}

func (s *SQLiteStore) List(_ context.Context, ownerID string) ([]Record, error) {
	rows, err := s.db.ListMemories(ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(rows))
	for i := range rows {
		out[i] = fromRow(&rows[i])
	}
	return out, nil
}

func (s *SQLiteStore) Update(ctx context.Context, rec Record) (Record, error) {
	row := toRow(rec)
	if err := s.db.UpdateMemory(row); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return s.Get(ctx, rec.OwnerID, rec.ID)
}

func (s *SQLiteStore) Delete(_ context.Context, ownerID, id string) error {
	if err := s.db.DeleteMemory(ownerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) Close() error { return nil }

func toRow(r Record) *store.Memory {
	return &store.Memory{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		CreatedBy:   r.CreatedBy,
		Title:       r.Title,
		Date:        r.Date,
		Type:        string(r.Type),
		Content:     r.Content,
		Location:    r.Location,
		People:      r.People,
		Filter:      string(r.Filter),
		Description: r.Description,
		Tags:        r.Tags,
	}
}

func fromRow(m *store.Memory) Record {
	return Record{
		Record: timeline.Record{
			ID:          m.ID,
			Title:       m.Title,
			Date:        m.Date,
			Type:        timeline.Type(m.Type),
			Content:     m.Content,
			Location:    m.Location,
			People:      m.People,
			Filter:      timeline.Filter(m.Filter),
			Description: m.Description,
			Tags:        m.Tags,
		},
		OwnerID:   m.OwnerID,
		CreatedBy: m.CreatedBy,
		CreatedAt: time.UnixMilli(m.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(m.UpdatedAt).UTC(),
	}
}

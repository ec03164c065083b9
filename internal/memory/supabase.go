package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/memobloom/memobloom/internal/timeline"
)

// supabaseTable is the hosted table; its owner column is user_id.
const supabaseTable = "memories"

// SupabaseStore talks to a hosted Supabase project through PostgREST.
// The postgrest client does not take a context, so cancellation is not
// propagated to in-flight requests.
type SupabaseStore struct {
	client *supabase.Client
}

func NewSupabaseStore(client *supabase.Client) *SupabaseStore {
	return &SupabaseStore{client: client}
}

type supabaseRow struct {
	ID          string   `json:"id,omitempty"`
	UserID      string   `json:"user_id"`
	CreatedBy   string   `json:"created_by,omitempty"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Type        string   `json:"type"`
	Content     string   `json:"content"`
	Location    string   `json:"location"`
	People      []string `json:"people"`
	Filter      string   `json:"filter"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

func toSupabaseRow(r Record) supabaseRow {
	return supabaseRow{
		ID:          r.ID,
		UserID:      r.OwnerID,
		CreatedBy:   r.CreatedBy,
		Title:       r.Title,
		Date:        r.Date,
		Type:        string(r.Type),
		Content:     r.Content,
		Location:    r.Location,
		People:      nonNil(r.People),
		Filter:      string(r.Filter),
		Description: r.Description,
		Tags:        nonNil(r.Tags),
	}
}

func (row supabaseRow) record() Record {
	r := Record{
		Record: timeline.Record{
			ID:          row.ID,
			Title:       row.Title,
			Date:        row.Date,
			Type:        timeline.Type(row.Type),
			Content:     row.Content,
			Location:    row.Location,
			People:      row.People,
			Filter:      timeline.Filter(row.Filter),
			Description: row.Description,
			Tags:        row.Tags,
		},
		OwnerID:   row.UserID,
		CreatedBy: row.CreatedBy,
		CreatedAt: parseStamp(row.CreatedAt),
		UpdatedAt: parseStamp(row.UpdatedAt),
	}
	if r.Filter == "" {
		r.Filter = timeline.FilterNone
	}
	if len(r.People) == 0 {
		r.People = nil
	}
	if len(r.Tags) == 0 {
		r.Tags = nil
	}
	return r
}

// parseStamp returns the zero time for values it cannot read.
func parseStamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func (s *SupabaseStore) Create(_ context.Context, rec Record) (Record, error) {
	rec.ID = uuid.NewString()
	row := toSupabaseRow(rec)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	row.CreatedAt, row.UpdatedAt = now, now

	var out []supabaseRow
	if _, err := s.client.From(supabaseTable).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&out); err != nil {
		return Record{}, fmt.Errorf("insert memory: %w", err)
	}
	if len(out) == 0 {
		return row.record(), nil
	}
	return out[0].record(), nil
}

func (s *SupabaseStore) Get(_ context.Context, ownerID, id string) (Record, error) {
	var out []supabaseRow
	if _, err := s.client.From(supabaseTable).
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", ownerID).
		ExecuteTo(&out); err != nil {
		return Record{}, fmt.Errorf("get memory: %w", err)
	}
	if len(out) == 0 {
		return Record{}, ErrNotFound
	}
	return out[0].record(), nil
}

func (s *SupabaseStore) List(_ context.Context, ownerID string) ([]Record, error) {
	var rows []supabaseRow
	if _, err := s.client.From(supabaseTable).
		Select("*", "", false).
		Eq("user_id", ownerID).
		Order("date", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	// PostgREST takes a single order column here; settle ties by creation.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *SupabaseStore) Update(_ context.Context, rec Record) (Record, error) {
	row := toSupabaseRow(rec)
	row.ID = ""
	row.CreatedBy = ""
	row.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)

	var out []supabaseRow
	if _, err := s.client.From(supabaseTable).
		Update(row, "representation", "").
		Eq("id", rec.ID).
		Eq("user_id", rec.OwnerID).
		ExecuteTo(&out); err != nil {
		return Record{}, fmt.Errorf("update memory: %w", err)
	}
	if len(out) == 0 {
		return Record{}, ErrNotFound
	}
	return out[0].record(), nil
}

func (s *SupabaseStore) Delete(_ context.Context, ownerID, id string) error {
	var out []supabaseRow
	if _, err := s.client.From(supabaseTable).
		Delete("representation", "").
		Eq("id", id).
		Eq("user_id", ownerID).
		ExecuteTo(&out); err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if len(out) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SupabaseStore) Close() error { return nil }

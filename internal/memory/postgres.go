package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/memobloom/memobloom/internal/timeline"
)

// PostgresStore persists memories in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			seq BIGSERIAL,
			owner_id TEXT NOT NULL,
			created_by TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			memory_date TEXT NOT NULL,
			type TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			people TEXT[] NOT NULL DEFAULT '{}',
			filter TEXT NOT NULL DEFAULT 'none',
			description TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_memories_owner_date ON memories (owner_id, memory_date DESC, seq);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

const pgColumns = `id, owner_id, created_by, title, memory_date, type, content, location,
	people, filter, description, tags, created_at, updated_at`

func scanPG(row pgx.Row) (Record, error) {
	var r Record
	var typ, filter string
	err := row.Scan(&r.ID, &r.OwnerID, &r.CreatedBy, &r.Title, &r.Date, &typ, &r.Content, &r.Location,
		&r.People, &filter, &r.Description, &r.Tags, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	r.Type = timeline.Type(typ)
	r.Filter = timeline.Filter(filter)
	if len(r.People) == 0 {
		r.People = nil
	}
	if len(r.Tags) == 0 {
		r.Tags = nil
	}
	return r, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec Record) (Record, error) {
	rec.ID = uuid.NewString()
	now := time.Now().UTC()

	row := s.pool.QueryRow(ctx,
		`INSERT INTO memories (id, owner_id, created_by, title, memory_date, type, content, location,
			people, filter, description, tags, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
		 RETURNING `+pgColumns,
		rec.ID, rec.OwnerID, rec.CreatedBy, rec.Title, rec.Date, string(rec.Type), rec.Content, rec.Location,
		nonNil(rec.People), string(rec.Filter), rec.Description, nonNil(rec.Tags), now,
	)
	out, err := scanPG(row)
	if err != nil {
		return Record{}, fmt.Errorf("create memory: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, ownerID, id string) (Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgColumns+` FROM memories WHERE id=$1 AND owner_id=$2`, id, ownerID)
	out, err := scanPG(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get memory: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context, ownerID string) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgColumns+` FROM memories WHERE owner_id=$1 ORDER BY memory_date DESC, seq`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanPG(rows)
		if err != nil {
			return nil, fmt.Errorf("scan memory row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memory rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, rec Record) (Record, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE memories SET title=$3, memory_date=$4, type=$5, content=$6, location=$7,
			people=$8, filter=$9, description=$10, tags=$11, updated_at=now()
		 WHERE id=$1 AND owner_id=$2
		 RETURNING `+pgColumns,
		rec.ID, rec.OwnerID, rec.Title, rec.Date, string(rec.Type), rec.Content, rec.Location,
		nonNil(rec.People), string(rec.Filter), rec.Description, nonNil(rec.Tags),
	)
	out, err := scanPG(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("update memory: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM memories WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func nonNil(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

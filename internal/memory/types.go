// Package memory stores journal entries for a patient. Records are scoped by
// owner: every read and write names the patient the record belongs to.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/memobloom/memobloom/internal/timeline"
)

// ErrNotFound is returned when a record does not exist or belongs to a
// different owner.
var ErrNotFound = errors.New("memory not found")

// Record is a stored memory: the fields the timeline engine consumes plus
// ownership and bookkeeping.
type Record struct {
	timeline.Record
	OwnerID   string    `json:"owner_id"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists memory records.
type Store interface {
	// Create assigns the id and timestamps and returns the stored record.
	Create(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, ownerID, id string) (Record, error)
	// List returns the owner's records, newest date first, creation order
	// within a date.
	List(ctx context.Context, ownerID string) ([]Record, error)
	Update(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, ownerID, id string) error
	Close() error
}

// Snapshot strips bookkeeping fields, leaving what the timeline engine needs.
func Snapshot(recs []Record) []timeline.Record {
	out := make([]timeline.Record, len(recs))
	for i, r := range recs {
		out[i] = r.Record
	}
	return out
}

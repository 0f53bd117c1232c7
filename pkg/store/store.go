// Package store archives placement runs so they can be listed and fetched
// later by ID.
//
// Backends:
//   - [MemoryStore]: in-process, for tests and ephemeral servers
//   - [FileStore]: one JSON file per run, for the CLI
//   - [MongoStore]: MongoDB collection, for multi-instance servers
//
// # Usage
//
//	rec := store.NewRecord(report)
//	if err := s.Save(ctx, rec); err != nil {
//	    return err
//	}
//	got, err := s.Get(ctx, rec.ID)
//	if perrors.Is(err, perrors.ErrCodeNotFound) {
//	    // unknown or deleted run
//	}
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/xbpar/pkg/io"

	perrors "github.com/matzehuels/xbpar/pkg/errors"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Record is one archived run.
type Record struct {
	ID          string     `json:"id" bson:"_id"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	NetlistHash string     `json:"netlist_hash" bson:"netlist_hash"`
	DeviceHash  string     `json:"device_hash" bson:"device_hash"`
	CacheKey    string     `json:"cache_key,omitempty" bson:"cache_key,omitempty"`
	CacheHit    bool       `json:"cache_hit" bson:"cache_hit"`
	Report      *io.Report `json:"report" bson:"report"`
}

// NewRecord wraps a report with a fresh random ID and the current time.
func NewRecord(r *io.Report) *Record {
	return &Record{ID: uuid.NewString(), CreatedAt: time.Now().UTC(), Report: r}
}

// Store persists run records.
type Store interface {
	// Save inserts rec. A missing ID or timestamp is filled in.
	Save(ctx context.Context, rec *Record) error

	// Get returns the record with the given ID, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Delete removes a record. Unknown IDs are not an error.
	Delete(ctx context.Context, id string) error

	Close() error
}

func prepare(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

func notFound(id string) error {
	return perrors.New(perrors.ErrCodeNotFound, "run %q not found", id)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

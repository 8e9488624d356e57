// Package store persists booking records.
//
// It defines a Store interface with two interchangeable backends:
// - FileStore: a single JSON document on local disk (development)
// - MongoStore: a MongoDB collection (production)
//
// Handlers are written against the interface so a backend can be swapped by
// configuration without touching request handling.
package store

import (
	"context"

	"github.com/calebross/stagebook/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Store persists and retrieves booking records.
//
// Records are append-only: there is no update or delete operation.
type Store interface {
	// Put assigns the record's identifier and timestamp, persists it, and
	// returns the assigned identifier. I/O failures surface as a StoreError.
	Put(ctx context.Context, rec *domain.BookingRecord) (string, error)

	// ListAll returns every stored record. No pagination, no filtering;
	// insertion order is not guaranteed by every backend.
	ListAll(ctx context.Context) ([]domain.BookingRecord, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources. Put and ListAll fail with
	// ErrNotReady afterward.
	Close(ctx context.Context) error

	// Ready reports whether the store can accept operations. Requests
	// arriving before a backend finished connecting fail fast instead of
	// dereferencing a nil handle.
	Ready() bool
}

// =============================================================================
// Backend Constants
// =============================================================================

const (
	// BackendFile identifies the flat-file JSON backend.
	BackendFile = "file"

	// BackendMongo identifies the MongoDB backend.
	BackendMongo = "mongo"
)

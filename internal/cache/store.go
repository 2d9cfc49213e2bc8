// Package cache provides the server-side summary cache: a key/value store with
// per-entry expiry and interchangeable memory, SQLite, Postgres and Firestore backends.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMiss is returned by Get when no live entry exists for a key.
var ErrMiss = errors.New("cache miss")

// Store is a string key/value cache with per-entry expiry.
type Store interface {
	// Get returns the value stored under key, or ErrMiss when it is absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key for ttl. A non-positive ttl stores nothing.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Open returns the store for backend. dsn is the SQLite file path, the Postgres
// connection URL, or the Firestore project ID depending on the backend.
func Open(ctx context.Context, backend, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		if dsn == "" {
			dsn = "doc_summarizer.db"
		}
		return OpenSQLite(dsn)
	case BackendPostgres:
		return OpenPostgres(ctx, dsn)
	case BackendFirestore:
		return OpenFirestore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

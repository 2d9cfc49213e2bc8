// Package db provides PostgreSQL access for the shared summary cache table.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the summary cache table. It is safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS document_summaries (
	cache_key  TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_document_summaries_expires_at ON document_summaries(expires_at);
`

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the summary table if it does not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate summary table: %w", err)
	}
	return nil
}

// GetSummary returns the live value for key. found is false when the row is
// missing or expired.
func (db *DB) GetSummary(ctx context.Context, key string) (value string, found bool, err error) {
	err = db.pool.QueryRow(ctx,
		`SELECT value FROM document_summaries WHERE cache_key = $1 AND expires_at > NOW()`,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get summary: %w", err)
	}
	return value, true, nil
}

// UpsertSummary stores value under key until ttl elapses
func (db *DB) UpsertSummary(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO document_summaries (cache_key, value, expires_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (cache_key) DO UPDATE SET value = $2, expires_at = $3, updated_at = NOW()`,
		key, value, time.Now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// DeleteSummary removes the row for key
func (db *DB) DeleteSummary(ctx context.Context, key string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM document_summaries WHERE cache_key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	return nil
}

// PurgeExpired deletes expired rows and returns how many were removed
func (db *DB) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM document_summaries WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge summaries: %w", err)
	}
	return tag.RowsAffected(), nil
}

package cache

import (
	"context"
	"time"

	"github.com/jonathan/document-summarizer/internal/db"
)

// Postgres is a Store backed by the shared document_summaries table.
type Postgres struct {
	db *db.DB
}

// OpenPostgres connects to databaseURL and ensures the summary table exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return &Postgres{db: database}, nil
}

// Get implements Store.
func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	value, found, err := p.db.GetSummary(ctx, key)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrMiss
	}
	return value, nil
}

// Set implements Store.
func (p *Postgres) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return p.db.UpsertSummary(ctx, key, value, ttl)
}

// Delete implements Store.
func (p *Postgres) Delete(ctx context.Context, key string) error {
	return p.db.DeleteSummary(ctx, key)
}

// Close implements Store.
func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

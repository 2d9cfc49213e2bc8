package cache

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreCollection holds one document per cache key.
const FirestoreCollection = "document_summaries"

type firestoreEntry struct {
	Value     string    `firestore:"value"`
	ExpiresAt time.Time `firestore:"expiresAt"`
}

// Firestore is a Store backed by a Firestore collection.
type Firestore struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

// OpenFirestore creates a Firestore-backed store for projectID.
func OpenFirestore(ctx context.Context, projectID string) (*Firestore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &Firestore{client: client, collection: FirestoreCollection, now: time.Now}, nil
}

// Get implements Store.
func (f *Firestore) Get(ctx context.Context, key string) (string, error) {
	snap, err := f.client.Collection(f.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to read cache document: %w", err)
	}

	var entry firestoreEntry
	if err := snap.DataTo(&entry); err != nil {
		return "", fmt.Errorf("failed to decode cache document: %w", err)
	}
	if !f.now().Before(entry.ExpiresAt) {
		return "", ErrMiss
	}
	return entry.Value, nil
}

// Set implements Store.
func (f *Firestore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	entry := firestoreEntry{Value: value, ExpiresAt: f.now().Add(ttl)}
	if _, err := f.client.Collection(f.collection).Doc(key).Set(ctx, entry); err != nil {
		return fmt.Errorf("failed to write cache document: %w", err)
	}
	return nil
}

// Delete implements Store.
func (f *Firestore) Delete(ctx context.Context, key string) error {
	if _, err := f.client.Collection(f.collection).Doc(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete cache document: %w", err)
	}
	return nil
}

// Close implements Store.
func (f *Firestore) Close() error {
	return f.client.Close()
}

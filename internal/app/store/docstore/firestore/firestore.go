// Package firestoredocs implements docstore.Store on Cloud Firestore.
package firestoredocs

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store is a Firestore-backed docstore.Store. The client is owned by the caller.
type Store struct {
	client *firestore.Client
}

// New wraps an existing Firestore client.
func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestoredocs: get %s/%s: %w", collection, id, err)
	}
	return docstore.Document(snap.Data()), nil
}

// UpsertMerge implements docstore.Store using MergeAll, which creates the
// document if needed and merges nested maps field by field.
func (s *Store) UpsertMerge(ctx context.Context, collection, id string, partial docstore.Document) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, map[string]interface{}(partial), firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestoredocs: upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

// QueryWhere implements docstore.Store.
func (s *Store) QueryWhere(ctx context.Context, collection, field string, op docstore.Op, value any) ([]docstore.Snapshot, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", docstore.ErrUnsupportedOp, op)
	}
	q := s.client.Collection(collection).Where(field, string(op), value)
	return s.collect(ctx, collection, q.Documents(ctx))
}

// List implements docstore.Store.
func (s *Store) List(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
	return s.collect(ctx, collection, s.client.Collection(collection).Documents(ctx))
}

func (s *Store) collect(ctx context.Context, collection string, it *firestore.DocumentIterator) ([]docstore.Snapshot, error) {
	snaps, err := it.GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestoredocs: read %s: %w", collection, err)
	}
	out := make([]docstore.Snapshot, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, docstore.Snapshot{ID: snap.Ref.ID, Data: docstore.Document(snap.Data())})
	}
	return out, nil
}

// BatchDelete implements docstore.Store with a single write batch, which
// Firestore commits atomically. Batches are capped at docstore.MaxBatchSize.
func (s *Store) BatchDelete(ctx context.Context, collection string, ids []string) error {
	if len(ids) > docstore.MaxBatchSize {
		return fmt.Errorf("%w: %d > %d", docstore.ErrBatchTooLarge, len(ids), docstore.MaxBatchSize)
	}
	if len(ids) == 0 {
		return nil
	}

	batch := s.client.Batch()
	col := s.client.Collection(collection)
	for _, id := range ids {
		batch.Delete(col.Doc(id))
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("firestoredocs: batch delete %s: %w", collection, err)
	}
	return nil
}

// Ping implements docstore.Store by listing at most one root collection.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.Collections(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestoredocs: ping: %w", err)
	}
	return nil
}

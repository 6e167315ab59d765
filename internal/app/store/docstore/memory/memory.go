// Package memdocs is an in-process docstore.Store used by tests and by the
// "memory" backend for local development. Data is lost when the process exits.
package memdocs

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
)

// Store keeps collections in maps guarded by a single mutex, which also makes
// BatchDelete trivially atomic.
type Store struct {
	mu   sync.RWMutex
	cols map[string]map[string]docstore.Document
}

// New returns an empty Store.
func New() *Store {
	return &Store{cols: make(map[string]map[string]docstore.Document)}
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.cols[collection][id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return clone(doc).(docstore.Document), nil
}

// UpsertMerge implements docstore.Store.
func (s *Store) UpsertMerge(ctx context.Context, collection, id string, partial docstore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.cols[collection]
	if !ok {
		col = make(map[string]docstore.Document)
		s.cols[collection] = col
	}
	existing, ok := col[id]
	if !ok {
		existing = docstore.Document{}
	}
	col[id] = docstore.Document(merge(map[string]any(existing), map[string]any(partial)))
	return nil
}

// QueryWhere implements docstore.Store.
func (s *Store) QueryWhere(ctx context.Context, collection, field string, op docstore.Op, value any) ([]docstore.Snapshot, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("%w: %q", docstore.ErrUnsupportedOp, op)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []docstore.Snapshot
	for _, id := range s.sortedIDs(collection) {
		doc := s.cols[collection][id]
		v, ok := doc[field]
		if !ok {
			// Documents without the field never match, as in Firestore.
			continue
		}
		if match(v, op, value) {
			out = append(out, docstore.Snapshot{ID: id, Data: clone(doc).(docstore.Document)})
		}
	}
	return out, nil
}

// List implements docstore.Store.
func (s *Store) List(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sortedIDs(collection)
	out := make([]docstore.Snapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, docstore.Snapshot{ID: id, Data: clone(s.cols[collection][id]).(docstore.Document)})
	}
	return out, nil
}

// BatchDelete implements docstore.Store.
func (s *Store) BatchDelete(ctx context.Context, collection string, ids []string) error {
	if len(ids) > docstore.MaxBatchSize {
		return fmt.Errorf("%w: %d > %d", docstore.ErrBatchTooLarge, len(ids), docstore.MaxBatchSize)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.cols[collection], id)
	}
	return nil
}

// Ping implements docstore.Store.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Len returns the number of documents in collection.
func (s *Store) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cols[collection])
}

// sortedIDs returns ids in lexical order, the order Firestore enumerates in.
// Caller must hold the lock.
func (s *Store) sortedIDs(collection string) []string {
	ids := make([]string, 0, len(s.cols[collection]))
	for id := range s.cols[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// merge writes src into dst, descending into nested maps present on both sides.
func merge(dst, src map[string]any) map[string]any {
	for k, v := range src {
		if sm, ok := asMap(v); ok {
			if dm, ok := asMap(dst[k]); ok {
				dst[k] = merge(dm, sm)
				continue
			}
		}
		dst[k] = clone(v)
	}
	return dst
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case docstore.Document:
		return map[string]any(m), true
	}
	return nil, false
}

func clone(v any) any {
	switch t := v.(type) {
	case docstore.Document:
		out := make(docstore.Document, len(t))
		for k, vv := range t {
			out[k] = clone(vv)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = clone(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = clone(vv)
		}
		return out
	default:
		return v
	}
}

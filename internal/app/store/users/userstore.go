// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"fmt"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
)

// Store reads and writes typed user documents in the "user" collection.
type Store struct {
	docs docstore.Store
}

// New returns a Store over docs.
func New(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// Get returns the user with id, or docstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (models.User, error) {
	doc, err := s.docs.Get(ctx, docstore.CollectionUser, id)
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	if err := (docstore.Snapshot{ID: id, Data: doc}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// Save upserts u at u.ID, merging into any existing document.
func (s *Store) Save(ctx context.Context, u models.User) error {
	if u.ID == "" {
		return fmt.Errorf("userstore: save: empty id")
	}
	return s.docs.UpsertMerge(ctx, docstore.CollectionUser, u.ID, u.Doc())
}

// ListByType returns every user whose userType equals t.
func (s *Store) ListByType(ctx context.Context, t models.UserType) ([]models.User, error) {
	snaps, err := s.docs.QueryWhere(ctx, docstore.CollectionUser, "userType", docstore.OpEqual, int64(t))
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(snaps))
	for _, snap := range snaps {
		var u models.User
		if err := snap.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// internal/app/store/inquiries/inquirystore.go
package inquirystore

import (
	"context"
	"fmt"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
)

// Store reads and writes typed inquiry documents in the "inquiry" collection.
type Store struct {
	docs docstore.Store
}

// New returns a Store over docs.
func New(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// Get returns the inquiry with id, or docstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (models.Inquiry, error) {
	doc, err := s.docs.Get(ctx, docstore.CollectionInquiry, id)
	if err != nil {
		return models.Inquiry{}, err
	}
	var inq models.Inquiry
	if err := (docstore.Snapshot{ID: id, Data: doc}).Decode(&inq); err != nil {
		return models.Inquiry{}, err
	}
	return inq, nil
}

// List returns every inquiry. A document that cannot be decoded is reported
// through bad and left out of the result instead of failing the listing.
func (s *Store) List(ctx context.Context, bad func(id string, err error)) ([]models.Inquiry, error) {
	snaps, err := s.docs.List(ctx, docstore.CollectionInquiry)
	if err != nil {
		return nil, fmt.Errorf("inquirystore: list: %w", err)
	}
	out := make([]models.Inquiry, 0, len(snaps))
	for _, snap := range snaps {
		var inq models.Inquiry
		if err := snap.Decode(&inq); err != nil {
			if bad != nil {
				bad(snap.ID, err)
			}
			continue
		}
		out = append(out, inq)
	}
	return out, nil
}

// SetLocation merges only the location field into the inquiry document.
func (s *Store) SetLocation(ctx context.Context, id string, loc models.Location) error {
	return s.docs.UpsertMerge(ctx, docstore.CollectionInquiry, id, docstore.Document{
		"location": loc.Doc(),
	})
}

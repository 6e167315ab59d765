// internal/app/store/links/linkstore.go
package linkstore

import (
	"context"
	"errors"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
)

// ErrMissingIDs is returned when either side of the link is empty.
var ErrMissingIDs = errors.New("linkstore: userID and inquiryID are required")

// Store writes userToInquiry join records.
type Store struct {
	docs docstore.Store
}

// New returns a Store over docs.
func New(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// Create links userID to inquiryID. The record id is derived from the pair,
// so creating the same link again merges into the existing record.
func (s *Store) Create(ctx context.Context, userID, inquiryID string) (models.UserToInquiry, error) {
	if userID == "" || inquiryID == "" {
		return models.UserToInquiry{}, ErrMissingIDs
	}
	link := models.NewUserToInquiry(userID, inquiryID)
	if err := s.docs.UpsertMerge(ctx, docstore.CollectionUserToInquiry, link.ID, link.Doc()); err != nil {
		return models.UserToInquiry{}, err
	}
	return link, nil
}

// Package firebaseidentity implements identity.Store on Firebase Authentication.
package firebaseidentity

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/dalemusser/dispatchhub/internal/app/store/identity"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
	"google.golang.org/api/iterator"
)

// Store wraps a Firebase Auth client. The client is owned by the caller.
type Store struct {
	client *auth.Client
}

// New wraps an existing auth client.
func New(client *auth.Client) *Store {
	return &Store{client: client}
}

// CreateAccount implements identity.Store.
func (s *Store) CreateAccount(ctx context.Context, p identity.Profile) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	params := (&auth.UserToCreate{}).Email(p.Email).Password(p.Password)
	if p.DisplayName != "" {
		params = params.DisplayName(p.DisplayName)
	}
	rec, err := s.client.CreateUser(ctx, params)
	if err != nil {
		return "", fmt.Errorf("firebaseidentity: create %s: %w", p.Email, err)
	}
	return rec.UID, nil
}

// DeleteAccount implements identity.Store.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	err := s.client.DeleteUser(ctx, accountID)
	if auth.IsUserNotFound(err) {
		return fmt.Errorf("%w: %s", identity.ErrAccountNotFound, accountID)
	}
	if err != nil {
		return fmt.Errorf("firebaseidentity: delete %s: %w", accountID, err)
	}
	return nil
}

// ListAccounts implements identity.Store. cursor is the Firebase page token.
func (s *Store) ListAccounts(ctx context.Context, pageSize int, cursor string) (identity.Page, error) {
	if pageSize <= 0 {
		pageSize = identity.DefaultPageSize
	}
	pager := iterator.NewPager(s.client.Users(ctx, ""), pageSize, cursor)

	var users []*auth.ExportedUserRecord
	next, err := pager.NextPage(&users)
	if err != nil {
		return identity.Page{}, fmt.Errorf("firebaseidentity: list users: %w", err)
	}

	page := identity.Page{NextCursor: next}
	for _, u := range users {
		page.Accounts = append(page.Accounts, toAccount(u))
	}
	return page, nil
}

func toAccount(u *auth.ExportedUserRecord) models.Account {
	acc := models.Account{}
	if u == nil || u.UserRecord == nil {
		return acc
	}
	if u.UserInfo != nil {
		acc.AccountID = u.UID
		acc.Email = u.Email
		acc.DisplayName = u.DisplayName
	}
	if md := u.UserMetadata; md != nil {
		if md.CreationTimestamp > 0 {
			acc.CreatedAt = time.UnixMilli(md.CreationTimestamp).UTC()
		}
		if md.LastLogInTimestamp > 0 {
			t := time.UnixMilli(md.LastLogInTimestamp).UTC()
			acc.LastSignInAt = &t
		}
	}
	return acc
}

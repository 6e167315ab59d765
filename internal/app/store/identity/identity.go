// Package identity defines the identity store: the system of record for login
// accounts. Account ids double as the ids of the matching user documents.
package identity

import (
	"context"
	"errors"

	"github.com/dalemusser/dispatchhub/internal/domain/models"
)

// DefaultPageSize is the page size used when enumerating every account.
const DefaultPageSize = 1000

// ErrAccountNotFound is returned by DeleteAccount when no account has the id.
var ErrAccountNotFound = errors.New("identity: account not found")

// ErrInvalidProfile is returned by CreateAccount when required fields are missing.
var ErrInvalidProfile = errors.New("identity: email and password are required")

// Profile carries the fields needed to create an account.
type Profile struct {
	Email       string
	Password    string
	DisplayName string
}

// Validate checks the fields every backend requires.
func (p Profile) Validate() error {
	if p.Email == "" || p.Password == "" {
		return ErrInvalidProfile
	}
	return nil
}

// Page is one slice of an account enumeration. An empty NextCursor means the
// enumeration is complete.
type Page struct {
	Accounts   []models.Account
	NextCursor string
}

// Store is the identity store contract shared by all backends.
type Store interface {
	CreateAccount(ctx context.Context, p Profile) (string, error)
	DeleteAccount(ctx context.Context, accountID string) error
	ListAccounts(ctx context.Context, pageSize int, cursor string) (Page, error)
}

// ForEach walks every account in pages of pageSize, calling fn for each in
// enumeration order. It stops when a page comes back empty or without a
// cursor. Listing errors are returned as-is; fn errors stop the walk too.
func ForEach(ctx context.Context, s Store, pageSize int, fn func(models.Account) error) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	cursor := ""
	for {
		page, err := s.ListAccounts(ctx, pageSize, cursor)
		if err != nil {
			return err
		}
		for _, acc := range page.Accounts {
			if err := fn(acc); err != nil {
				return err
			}
		}
		if page.NextCursor == "" || len(page.Accounts) == 0 {
			return nil
		}
		cursor = page.NextCursor
	}
}

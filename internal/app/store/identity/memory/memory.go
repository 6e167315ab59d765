// Package memidentity is an in-process identity.Store for tests and local
// development.
package memidentity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/dispatchhub/internal/app/store/identity"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
	"github.com/google/uuid"
)

// Store holds accounts in memory. Enumeration is ordered by account id.
type Store struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	now      func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[string]models.Account),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Add inserts acc as-is, replacing any account with the same id.
func (s *Store) Add(acc models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = s.now()
	}
	s.accounts[acc.AccountID] = acc
}

// Has reports whether an account with id exists.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[id]
	return ok
}

// Len returns the number of accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// CreateAccount implements identity.Store.
func (s *Store) CreateAccount(ctx context.Context, p identity.Profile) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	s.Add(models.Account{AccountID: id, Email: p.Email, DisplayName: p.DisplayName})
	return id, nil
}

// DeleteAccount implements identity.Store.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; !ok {
		return identity.ErrAccountNotFound
	}
	delete(s.accounts, accountID)
	return nil
}

// ListAccounts implements identity.Store. The cursor is the last account id
// of the previous page, so deleting accounts mid-enumeration skips nothing.
func (s *Store) ListAccounts(ctx context.Context, pageSize int, cursor string) (identity.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pageSize <= 0 {
		pageSize = identity.DefaultPageSize
	}

	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		if id > cursor {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var page identity.Page
	if len(ids) > pageSize {
		ids = ids[:pageSize]
		page.NextCursor = ids[len(ids)-1]
	}
	for _, id := range ids {
		page.Accounts = append(page.Accounts, s.accounts[id])
	}
	return page, nil
}

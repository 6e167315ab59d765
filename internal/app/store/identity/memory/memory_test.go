package memidentity

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/dispatchhub/internal/app/store/identity"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
)

func TestCreateAndDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.CreateAccount(ctx, identity.Profile{Email: "a@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if !s.Has(id) {
		t.Fatal("created account not found")
	}

	if err := s.DeleteAccount(ctx, id); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if err := s.DeleteAccount(ctx, id); !errors.Is(err, identity.ErrAccountNotFound) {
		t.Errorf("second delete: expected ErrAccountNotFound, got %v", err)
	}
}

func TestCreateAccount_Invalid(t *testing.T) {
	s := New()
	_, err := s.CreateAccount(context.Background(), identity.Profile{Email: "a@example.com"})
	if !errors.Is(err, identity.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestListAccounts_Pages(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Add(models.Account{AccountID: fmt.Sprintf("acc-%d", i)})
	}

	var seen []string
	err := identity.ForEach(context.Background(), s, 2, func(a models.Account) error {
		seen = append(seen, a.AccountID)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	if len(seen) != 5 {
		t.Fatalf("saw %d accounts, want 5", len(seen))
	}
	for i, id := range seen {
		if want := fmt.Sprintf("acc-%d", i); id != want {
			t.Errorf("seen[%d] = %q, want %q", i, id, want)
		}
	}
}

func TestListAccounts_Empty(t *testing.T) {
	page, err := New().ListAccounts(context.Background(), 10, "")
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(page.Accounts) != 0 || page.NextCursor != "" {
		t.Errorf("expected empty final page, got %+v", page)
	}
}

func TestListAccounts_DeleteDuringEnumeration(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		s.Add(models.Account{AccountID: fmt.Sprintf("acc-%d", i)})
	}

	seen := 0
	err := identity.ForEach(ctx, s, 2, func(a models.Account) error {
		seen++
		return s.DeleteAccount(ctx, a.AccountID)
	})
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	if seen != 6 {
		t.Errorf("saw %d accounts, want 6", seen)
	}
	if s.Len() != 0 {
		t.Errorf("%d accounts left, want 0", s.Len())
	}
}

package testutil

import (
	"context"
	"sync"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"github.com/dalemusser/dispatchhub/internal/app/store/identity"
)

// FlakyDocs wraps a docstore.Store and fails selected calls. Zero-valued
// failure fields pass calls through.
type FlakyDocs struct {
	docstore.Store

	mu             sync.Mutex
	QueryErr       error
	ListErr        error
	BatchDeleteErr error
	UpsertErr      error
	GetErrs        map[string]error

	// BeforeBatchDelete, when set, runs at the start of every BatchDelete.
	BeforeBatchDelete func()

	BatchDeletes [][]string
	Gets         []string
}

// NewFlakyDocs wraps inner.
func NewFlakyDocs(inner docstore.Store) *FlakyDocs {
	return &FlakyDocs{Store: inner, GetErrs: make(map[string]error)}
}

func (f *FlakyDocs) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	f.mu.Lock()
	f.Gets = append(f.Gets, id)
	err := f.GetErrs[id]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Store.Get(ctx, collection, id)
}

func (f *FlakyDocs) UpsertMerge(ctx context.Context, collection, id string, partial docstore.Document) error {
	if f.UpsertErr != nil {
		return f.UpsertErr
	}
	return f.Store.UpsertMerge(ctx, collection, id, partial)
}

func (f *FlakyDocs) QueryWhere(ctx context.Context, collection, field string, op docstore.Op, value any) ([]docstore.Snapshot, error) {
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	return f.Store.QueryWhere(ctx, collection, field, op, value)
}

func (f *FlakyDocs) List(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Store.List(ctx, collection)
}

func (f *FlakyDocs) BatchDelete(ctx context.Context, collection string, ids []string) error {
	if f.BeforeBatchDelete != nil {
		f.BeforeBatchDelete()
	}
	f.mu.Lock()
	f.BatchDeletes = append(f.BatchDeletes, append([]string(nil), ids...))
	f.mu.Unlock()
	if f.BatchDeleteErr != nil {
		return f.BatchDeleteErr
	}
	return f.Store.BatchDelete(ctx, collection, ids)
}

// FlakyIdentity wraps an identity.Store, failing deletes for chosen account
// ids and recording every delete attempt.
type FlakyIdentity struct {
	identity.Store

	mu         sync.Mutex
	DeleteErrs map[string]error
	ListErr    error
	CreateErr  error

	DeleteCalls []string
}

// NewFlakyIdentity wraps inner.
func NewFlakyIdentity(inner identity.Store) *FlakyIdentity {
	return &FlakyIdentity{Store: inner, DeleteErrs: make(map[string]error)}
}

func (f *FlakyIdentity) CreateAccount(ctx context.Context, p identity.Profile) (string, error) {
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	return f.Store.CreateAccount(ctx, p)
}

func (f *FlakyIdentity) DeleteAccount(ctx context.Context, accountID string) error {
	f.mu.Lock()
	f.DeleteCalls = append(f.DeleteCalls, accountID)
	err := f.DeleteErrs[accountID]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.DeleteAccount(ctx, accountID)
}

func (f *FlakyIdentity) ListAccounts(ctx context.Context, pageSize int, cursor string) (identity.Page, error) {
	if f.ListErr != nil {
		return identity.Page{}, f.ListErr
	}
	return f.Store.ListAccounts(ctx, pageSize, cursor)
}

// Deletes returns a copy of the recorded delete attempts.
func (f *FlakyIdentity) Deletes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.DeleteCalls...)
}

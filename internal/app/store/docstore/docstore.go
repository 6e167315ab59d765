// Package docstore defines the document store the admin backend reads and
// writes: named collections of string-keyed, JSON-like documents.
//
// Backends live in subpackages (firestore, mongo, memory). Callers depend on
// the Store interface only.
package docstore

import (
	"context"
	"errors"
)

// Collection names.
const (
	CollectionUser          = "user"
	CollectionInquiry       = "inquiry"
	CollectionUserToInquiry = "userToInquiry"
)

// MaxBatchSize is the largest number of deletes a single atomic batch may hold.
// It matches the Firestore write batch limit so every backend behaves alike.
const MaxBatchSize = 500

var (
	// ErrNotFound is returned by Get when no document has the given id.
	ErrNotFound = errors.New("docstore: document not found")

	// ErrBatchTooLarge is returned by BatchDelete before any write is attempted
	// when more than MaxBatchSize ids are passed.
	ErrBatchTooLarge = errors.New("docstore: batch exceeds maximum size")

	// ErrUnsupportedOp is returned by QueryWhere for an unknown operator.
	ErrUnsupportedOp = errors.New("docstore: unsupported query operator")
)

// Document is a single record. Nested objects are map[string]any, arrays are []any.
type Document map[string]any

// Snapshot pairs a document with the id it is stored under.
type Snapshot struct {
	ID   string
	Data Document
}

// Op is a query comparison operator.
type Op string

const (
	OpEqual          Op = "=="
	OpNotEqual       Op = "!="
	OpLess           Op = "<"
	OpLessOrEqual    Op = "<="
	OpGreater        Op = ">"
	OpGreaterOrEqual Op = ">="
	OpIn             Op = "in"
)

// Valid reports whether op is one of the supported operators.
func (op Op) Valid() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual, OpIn:
		return true
	}
	return false
}

// Store is the document store contract shared by all backends.
type Store interface {
	// Get returns the document stored at collection/id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// UpsertMerge creates the document or merges partial into it. Nested
	// objects merge field by field; other fields are replaced.
	UpsertMerge(ctx context.Context, collection, id string, partial Document) error

	// QueryWhere returns every document whose field satisfies op against value.
	QueryWhere(ctx context.Context, collection, field string, op Op, value any) ([]Snapshot, error)

	// List returns every document in the collection.
	List(ctx context.Context, collection string) ([]Snapshot, error)

	// BatchDelete removes all ids atomically: either every document is gone
	// afterwards or none was removed and an error is returned. Ids that do not
	// exist are not an error.
	BatchDelete(ctx context.Context, collection string, ids []string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Package localidentity implements identity.Store on a MongoDB "accounts"
// collection with bcrypt password hashes. It serves self-hosted deployments
// that do not use Firebase Authentication.
package localidentity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/dispatchhub/internal/app/store/identity"
	"github.com/dalemusser/dispatchhub/internal/app/system/normalize"
	"github.com/dalemusser/dispatchhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// CollectionName is the Mongo collection accounts are stored in.
const CollectionName = "accounts"

// ErrEmailTaken is returned by CreateAccount when the email is already registered.
var ErrEmailTaken = errors.New("localidentity: email already registered")

// accountDoc is the stored shape; the password hash never leaves this package.
type accountDoc struct {
	ID           string     `bson:"_id"`
	Email        string     `bson:"email"`
	DisplayName  string     `bson:"display_name,omitempty"`
	PasswordHash string     `bson:"password_hash"`
	CreatedAt    time.Time  `bson:"created_at"`
	LastSignInAt *time.Time `bson:"last_sign_in_at,omitempty"`
}

// Store is a Mongo-backed identity.Store.
type Store struct {
	c    *mongo.Collection
	cost int
}

// New returns a Store over db's accounts collection.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName), cost: bcrypt.DefaultCost}
}

// CreateAccount implements identity.Store.
func (s *Store) CreateAccount(ctx context.Context, p identity.Profile) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.cost)
	if err != nil {
		return "", fmt.Errorf("localidentity: hash password: %w", err)
	}

	doc := accountDoc{
		ID:           uuid.NewString(),
		Email:        normalize.Email(p.Email),
		DisplayName:  normalize.Name(p.DisplayName),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("localidentity: insert: %w", err)
	}
	return doc.ID, nil
}

// DeleteAccount implements identity.Store.
func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": accountID})
	if err != nil {
		return fmt.Errorf("localidentity: delete %s: %w", accountID, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", identity.ErrAccountNotFound, accountID)
	}
	return nil
}

// ListAccounts implements identity.Store. The cursor is the last account id of
// the previous page (keyset pagination on _id).
func (s *Store) ListAccounts(ctx context.Context, pageSize int, cursor string) (identity.Page, error) {
	if pageSize <= 0 {
		pageSize = identity.DefaultPageSize
	}
	filter := bson.M{}
	if cursor != "" {
		filter["_id"] = bson.M{"$gt": cursor}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(pageSize)).
		SetProjection(bson.M{"password_hash": 0})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return identity.Page{}, fmt.Errorf("localidentity: list: %w", err)
	}
	defer cur.Close(ctx)

	var page identity.Page
	for cur.Next(ctx) {
		var d accountDoc
		if err := cur.Decode(&d); err != nil {
			return identity.Page{}, fmt.Errorf("localidentity: decode: %w", err)
		}
		page.Accounts = append(page.Accounts, models.Account{
			AccountID:    d.ID,
			Email:        d.Email,
			DisplayName:  d.DisplayName,
			CreatedAt:    d.CreatedAt,
			LastSignInAt: d.LastSignInAt,
		})
	}
	if err := cur.Err(); err != nil {
		return identity.Page{}, fmt.Errorf("localidentity: iterate: %w", err)
	}

	// A full page may have more behind it; the caller stops on an empty page.
	if len(page.Accounts) == pageSize {
		page.NextCursor = page.Accounts[len(page.Accounts)-1].AccountID
	}
	return page, nil
}

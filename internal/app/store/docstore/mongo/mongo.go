// Package mongodocs implements docstore.Store on MongoDB. Each docstore
// collection maps to a Mongo collection of the same name, keyed by _id.
package mongodocs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"github.com/dalemusser/dispatchhub/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

var mongoOps = map[docstore.Op]string{
	docstore.OpEqual:          "$eq",
	docstore.OpNotEqual:       "$ne",
	docstore.OpLess:           "$lt",
	docstore.OpLessOrEqual:    "$lte",
	docstore.OpGreater:        "$gt",
	docstore.OpGreaterOrEqual: "$gte",
	docstore.OpIn:             "$in",
}

// Store is a MongoDB-backed docstore.Store.
type Store struct {
	db  *mongo.Database
	log *zap.Logger
}

// New returns a Store over db.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{db: db, log: logger}
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodocs: get %s/%s: %w", collection, id, err)
	}
	return fromBSON(raw), nil
}

// UpsertMerge implements docstore.Store. Nested maps are flattened to dotted
// paths where the stored field is already an object, so existing sibling
// fields survive, matching Firestore's MergeAll.
func (s *Store) UpsertMerge(ctx context.Context, collection, id string, partial docstore.Document) error {
	coll := s.db.Collection(collection)

	var existing map[string]any
	if proj := objectFields(partial); len(proj) > 0 {
		var raw bson.M
		err := coll.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(proj)).Decode(&raw)
		switch {
		case err == nil:
			existing = fromBSON(raw)
		case !errors.Is(err, mongo.ErrNoDocuments):
			return fmt.Errorf("mongodocs: upsert %s/%s: read current: %w", collection, id, err)
		}
	}

	set := bson.M{}
	flatten("", partial, existing, set)
	delete(set, "_id")

	update := bson.M{"$set": set}
	if len(set) == 0 {
		// $set may not be empty; still create the document if it is missing.
		update = bson.M{"$setOnInsert": bson.M{"id": id}}
	}

	_, err := coll.UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodocs: upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

// QueryWhere implements docstore.Store.
func (s *Store) QueryWhere(ctx context.Context, collection, field string, op docstore.Op, value any) ([]docstore.Snapshot, error) {
	mop, ok := mongoOps[op]
	if !ok {
		return nil, fmt.Errorf("%w: %q", docstore.ErrUnsupportedOp, op)
	}
	cond := bson.M{mop: value}
	if op == docstore.OpNotEqual {
		// $ne alone also matches documents without the field.
		cond["$exists"] = true
	}
	return s.find(ctx, collection, bson.M{field: cond})
}

// List implements docstore.Store.
func (s *Store) List(ctx context.Context, collection string) ([]docstore.Snapshot, error) {
	return s.find(ctx, collection, bson.M{})
}

func (s *Store) find(ctx context.Context, collection string, filter bson.M) ([]docstore.Snapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodocs: find %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var out []docstore.Snapshot
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("mongodocs: decode %s: %w", collection, err)
		}
		id := fmt.Sprint(raw["_id"])
		out = append(out, docstore.Snapshot{ID: id, Data: fromBSON(raw)})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongodocs: iterate %s: %w", collection, err)
	}
	return out, nil
}

// BatchDelete implements docstore.Store. The delete runs inside a transaction;
// on a standalone server it falls back to a single DeleteMany command.
func (s *Store) BatchDelete(ctx context.Context, collection string, ids []string) error {
	if len(ids) > docstore.MaxBatchSize {
		return fmt.Errorf("%w: %d > %d", docstore.ErrBatchTooLarge, len(ids), docstore.MaxBatchSize)
	}
	if len(ids) == 0 {
		return nil
	}

	coll := s.db.Collection(collection)
	fallback, err := txn.Run(ctx, s.db.Client(), func(ctx context.Context) error {
		_, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
		return err
	})
	if fallback {
		s.log.Warn("transactions unavailable; batch delete ran as a single command",
			zap.String("collection", collection),
			zap.Int("count", len(ids)))
	}
	if err != nil {
		return fmt.Errorf("mongodocs: batch delete %s: %w", collection, err)
	}
	return nil
}

// Ping implements docstore.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

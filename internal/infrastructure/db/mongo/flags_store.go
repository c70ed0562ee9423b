package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const flagsCollection = "device_flags"

// FlagsStore keeps one document per (scope, key) pair.
type FlagsStore struct {
	coll *mongo.Collection
}

func NewFlagsStore(db *mongo.Database) *FlagsStore {
	return &FlagsStore{coll: db.Collection(flagsCollection)}
}

type flagDoc struct {
	Scope     string    `bson:"scope"`
	Key       string    `bson:"key"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// EnsureIndexes creates the unique (scope, key) index.
func (s *FlagsStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "scope", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure flag indexes: %w", err)
	}
	return nil
}

func (s *FlagsStore) Read(ctx context.Context, scope, key string) (string, bool, error) {
	var doc flagDoc
	err := s.coll.FindOne(ctx, bson.M{"scope": scope, "key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find flag %s: %w", key, err)
	}
	return doc.Value, true, nil
}

func (s *FlagsStore) Write(ctx context.Context, scope, key, value string) error {
	filter := bson.M{"scope": scope, "key": key}
	update := bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}}

	if _, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert flag %s: %w", key, err)
	}
	return nil
}

func (s *FlagsStore) Remove(ctx context.Context, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	filter := bson.M{"scope": scope, "key": bson.M{"$in": keys}}
	if _, err := s.coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("delete flags: %w", err)
	}
	return nil
}

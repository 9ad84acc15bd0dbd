package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lostfound/internal/stats/models"
)

const (
	// CollectionName is the MongoDB collection holding the stats document.
	CollectionName = "stats"
	singletonID    = "singleton"
)

// MongoStore keeps the counters in one document updated with $inc upserts.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(CollectionName)}
}

func mongoField(name models.CounterName) string {
	if name == models.ClaimedDocuments {
		return "claimed_documents"
	}
	return "total_documents"
}

func (s *MongoStore) Increment(ctx context.Context, name models.CounterName, delta int64) error {
	if !name.Valid() {
		return fmt.Errorf("unknown counter %q", name)
	}
	_, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: singletonID}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: mongoField(name), Value: delta}}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("increment %s: %w", name, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context) (*models.Counters, error) {
	var c models.Counters
	err := s.col.FindOne(ctx, bson.D{{Key: "_id", Value: singletonID}}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &models.Counters{}, nil
		}
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &c, nil
}

func (s *MongoStore) Ensure(ctx context.Context) error {
	_, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: singletonID}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{
			{Key: "total_documents", Value: int64(0)},
			{Key: "claimed_documents", Value: int64(0)},
		}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("ensure stats: %w", err)
	}
	return nil
}

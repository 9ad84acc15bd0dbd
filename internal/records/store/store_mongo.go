package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lostfound/internal/records/models"
	"lostfound/pkg/platform/sentinel"
)

// CollectionName is the MongoDB collection holding records.
const CollectionName = "records"

// MongoStore persists records in MongoDB. Claimed records are removed by a TTL
// index on expire_at, so DeleteExpired only matters between TTL monitor passes.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique document-number index, the TTL index and
// the lookup index. Safe to call on every boot.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "unique_key", Value: 1}},
			Options: options.Index().
				SetName("category_unique_key").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "unique_key", Value: bson.D{{Key: "$exists", Value: true}}}}),
		},
		{
			Keys:    bson.D{{Key: "expire_at", Value: 1}},
			Options: options.Index().SetName("expire_at_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "claimed", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("category_claimed_created"),
		},
	})
	if err != nil {
		return fmt.Errorf("create record indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, r *models.Record) error {
	if _, err := s.col.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *MongoStore) FindOne(ctx context.Context, f Filter) (*models.Record, error) {
	var r models.Record
	err := s.col.FindOne(ctx, mongoFilter(f), options.FindOne().SetSort(oldestFirst)).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find record: %w", err)
	}
	return &r, nil
}

func (s *MongoStore) Find(ctx context.Context, f Filter, limit int) ([]*models.Record, error) {
	opts := options.Find().SetSort(oldestFirst)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.col.Find(ctx, mongoFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	out := make([]*models.Record, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return out, nil
}

// ConditionalUpdate uses FindOneAndUpdate so the filter and the write are a
// single atomic document operation.
func (s *MongoStore) ConditionalUpdate(ctx context.Context, f Filter, u Update) (*models.Record, error) {
	opts := options.FindOneAndUpdate().
		SetSort(oldestFirst).
		SetReturnDocument(options.After)

	var r models.Record
	err := s.col.FindOneAndUpdate(ctx, mongoFilter(f), bson.D{{Key: "$set", Value: mongoSet(u)}}, opts).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("conditional update record: %w", err)
	}
	return &r, nil
}

func (s *MongoStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.D{
		{Key: "claimed", Value: true},
		{Key: "expire_at", Value: bson.D{{Key: "$lte", Value: now}}},
	})
	if err != nil {
		return 0, fmt.Errorf("delete expired records: %w", err)
	}
	return res.DeletedCount, nil
}

var oldestFirst = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

func mongoFilter(f Filter) bson.D {
	d := bson.D{}
	if f.Category != "" {
		d = append(d, bson.E{Key: "category", Value: f.Category})
	}
	if f.ID != "" {
		d = append(d, bson.E{Key: "_id", Value: f.ID})
	}
	if f.UniqueKey != "" {
		d = append(d, bson.E{Key: "unique_key", Value: f.UniqueKey})
	}
	if f.FinderContact != "" {
		d = append(d, bson.E{Key: "finder_contact", Value: f.FinderContact})
	}
	if f.Claimed != nil {
		d = append(d, bson.E{Key: "claimed", Value: *f.Claimed})
	}
	for _, k := range sortedKeys(f.Fields) {
		d = append(d, bson.E{Key: "fields." + k, Value: f.Fields[k]})
	}
	return d
}

func mongoSet(u Update) bson.D {
	set := bson.D{{Key: "updated_at", Value: u.At}}
	if u.DocLocation != nil {
		set = append(set, bson.E{Key: "doc_location", Value: *u.DocLocation})
	}
	if u.FinderContact != nil {
		set = append(set, bson.E{Key: "finder_contact", Value: *u.FinderContact})
	}
	if u.Claim != nil {
		set = append(set,
			bson.E{Key: "claimed", Value: true},
			bson.E{Key: "claimed_at", Value: u.Claim.At},
			bson.E{Key: "expire_at", Value: u.Claim.ExpireAt},
			bson.E{Key: "status", Value: models.StatusFound},
		)
	}
	return set
}

//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"lostfound/pkg/testutil/containers"
)

const mongoTestDB = "lostfound_records_test"

type MongoStoreSuite struct {
	contractSuite
	mongo *containers.MongoContainer
}

func TestMongoStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(MongoStoreSuite))
}

func (s *MongoStoreSuite) SetupSuite() {
	s.mongo = containers.GetManager().GetMongo(s.T())
	s.newStore = func() recordStore {
		ctx := context.Background()
		s.Require().NoError(s.mongo.DropDatabase(ctx, mongoTestDB))
		store := NewMongo(s.mongo.Database(mongoTestDB))
		s.Require().NoError(store.EnsureIndexes(ctx))
		return store
	}
}

func (s *MongoStoreSuite) TestEnsureIndexesIsIdempotent() {
	store := NewMongo(s.mongo.Database(mongoTestDB))
	s.NoError(store.EnsureIndexes(context.Background()))
}

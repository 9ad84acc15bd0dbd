//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"lostfound/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	contractSuite
	postgres *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(NewPostgres(s.postgres.DB).Migrate(context.Background()))
	s.newStore = func() recordStore {
		s.Require().NoError(s.postgres.TruncateTables(context.Background(), "records"))
		return NewPostgres(s.postgres.DB)
	}
}

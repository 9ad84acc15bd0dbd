package store

import (
	"context"
	"sync"

	"github.com/stretchr/testify/suite"

	"lostfound/internal/stats/models"
)

type counterStore interface {
	Increment(ctx context.Context, name models.CounterName, delta int64) error
	Get(ctx context.Context) (*models.Counters, error)
	Ensure(ctx context.Context) error
}

// contractSuite is embedded by every backend suite.
type contractSuite struct {
	suite.Suite
	newStore func() counterStore
	store    counterStore
}

func (s *contractSuite) SetupTest() {
	s.Require().NotNil(s.newStore, "backend suite must set newStore")
	s.store = s.newStore()
}

func (s *contractSuite) TestEnsureInitializesZero() {
	ctx := context.Background()
	s.Require().NoError(s.store.Ensure(ctx))

	got, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.Equal(models.Counters{}, *got)
}

func (s *contractSuite) TestEnsureKeepsExistingValues() {
	ctx := context.Background()
	s.Require().NoError(s.store.Ensure(ctx))
	s.Require().NoError(s.store.Increment(ctx, models.TotalDocuments, 3))
	s.Require().NoError(s.store.Ensure(ctx))

	got, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), got.TotalDocuments)
}

func (s *contractSuite) TestGetBeforeEnsureIsZero() {
	got, err := s.store.Get(context.Background())
	s.Require().NoError(err)
	s.Equal(models.Counters{}, *got)
}

func (s *contractSuite) TestIncrementWithoutEnsureUpserts() {
	ctx := context.Background()
	s.Require().NoError(s.store.Increment(ctx, models.ClaimedDocuments, 1))

	got, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), got.ClaimedDocuments)
	s.Equal(int64(0), got.TotalDocuments)
}

func (s *contractSuite) TestConcurrentIncrementsAreNotLost() {
	ctx := context.Background()
	s.Require().NoError(s.store.Ensure(ctx))

	const goroutines = 25
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.NoError(s.store.Increment(ctx, models.TotalDocuments, 1))
		}()
		go func() {
			defer wg.Done()
			s.NoError(s.store.Increment(ctx, models.ClaimedDocuments, 1))
		}()
	}
	wg.Wait()

	got, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.Equal(models.Counters{TotalDocuments: goroutines, ClaimedDocuments: goroutines}, *got)
}

func (s *contractSuite) TestUnknownCounterRejected() {
	s.Error(s.store.Increment(context.Background(), "lostDocuments", 1))
}

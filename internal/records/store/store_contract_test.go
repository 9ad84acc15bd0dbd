package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"lostfound/internal/records/models"
	"lostfound/pkg/platform/sentinel"
)

type recordStore interface {
	Insert(ctx context.Context, r *models.Record) error
	FindOne(ctx context.Context, f Filter) (*models.Record, error)
	Find(ctx context.Context, f Filter, limit int) ([]*models.Record, error)
	ConditionalUpdate(ctx context.Context, f Filter, u Update) (*models.Record, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// contractSuite runs the same behaviour checks against every backend. Backend
// suites embed it and set newStore in SetupTest.
type contractSuite struct {
	suite.Suite
	newStore func() recordStore
	store    recordStore
	now      time.Time
}

func (s *contractSuite) SetupTest() {
	s.Require().NotNil(s.newStore, "backend suite must set newStore")
	s.store = s.newStore()
	s.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func (s *contractSuite) record(category models.Category, fields map[string]string, uniqueKey string) *models.Record {
	s.now = s.now.Add(time.Second)
	return &models.Record{
		ID:            uuid.NewString(),
		Category:      category,
		Fields:        fields,
		UniqueKey:     uniqueKey,
		DocLocation:   "Harare Central Police",
		FinderContact: "0778123456",
		Status:        models.StatusFound,
		CreatedAt:     s.now,
		UpdatedAt:     s.now,
	}
}

func (s *contractSuite) passport(number string) *models.Record {
	return s.record(models.CategoryPassport, map[string]string{"passport_number": number}, number)
}

func (s *contractSuite) baggage(destination string) *models.Record {
	return s.record(models.CategoryBaggage, map[string]string{
		"item_type":   "Purse",
		"destination": destination,
	}, "")
}

func claimAt(at time.Time, grace time.Duration) Update {
	return Update{Claim: &ClaimMark{At: at, ExpireAt: at.Add(grace)}, At: at}
}

// =============================================================================
// Insert / Find
// =============================================================================

func (s *contractSuite) TestInsertAndFindByID() {
	ctx := context.Background()
	rec := s.passport("AB123456")
	s.Require().NoError(s.store.Insert(ctx, rec))

	got, err := s.store.FindOne(ctx, Filter{ID: rec.ID})
	s.Require().NoError(err)
	s.Equal(rec.ID, got.ID)
	s.Equal(models.CategoryPassport, got.Category)
	s.Equal("AB123456", got.Fields["passport_number"])
	s.Equal("AB123456", got.UniqueKey)
	s.False(got.Claimed)
	s.Nil(got.ClaimedAt)
	s.True(rec.CreatedAt.Equal(got.CreatedAt))
}

func (s *contractSuite) TestFindOneNotFound() {
	_, err := s.store.FindOne(context.Background(), Filter{ID: uuid.NewString()})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *contractSuite) TestUniqueKeyPerCategory() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.passport("AB123456")))

	err := s.store.Insert(ctx, s.passport("AB123456"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	other := s.record(models.CategoryDriversLicence, map[string]string{"licence_number": "AB123456"}, "AB123456")
	s.NoError(s.store.Insert(ctx, other), "same number in another category is allowed")
}

func (s *contractSuite) TestRecordsWithoutUniqueKeyDoNotCollide() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.baggage("copacabana")))
	s.NoError(s.store.Insert(ctx, s.baggage("copacabana")))
}

func (s *contractSuite) TestFindFiltersAndLimit() {
	ctx := context.Background()
	first := s.baggage("copacabana")
	second := s.baggage("copacabana")
	third := s.baggage("mbare")
	for _, r := range []*models.Record{first, second, third} {
		s.Require().NoError(s.store.Insert(ctx, r))
	}

	all, err := s.store.Find(ctx, Filter{Category: models.CategoryBaggage}, 10)
	s.Require().NoError(err)
	s.Len(all, 3)

	matching, err := s.store.Find(ctx, Filter{
		Category: models.CategoryBaggage,
		Fields:   map[string]string{"destination": "copacabana"},
	}.Unclaimed(), 10)
	s.Require().NoError(err)
	s.Require().Len(matching, 2)
	s.Equal(first.ID, matching[0].ID, "oldest first")
	s.Equal(second.ID, matching[1].ID)

	limited, err := s.store.Find(ctx, Filter{Category: models.CategoryBaggage}, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)

	none, err := s.store.Find(ctx, Filter{Category: models.CategoryPassport}, 10)
	s.Require().NoError(err)
	s.Empty(none)
}

// =============================================================================
// Conditional update
// =============================================================================

func (s *contractSuite) TestConditionalUpdateSetsOnlyGivenFields() {
	ctx := context.Background()
	rec := s.baggage("copacabana")
	s.Require().NoError(s.store.Insert(ctx, rec))

	loc := "Mbare Police Post"
	at := s.now.Add(time.Minute)
	got, err := s.store.ConditionalUpdate(ctx, Filter{ID: rec.ID}.Unclaimed(), Update{DocLocation: &loc, At: at})
	s.Require().NoError(err)
	s.Equal(loc, got.DocLocation)
	s.Equal(rec.FinderContact, got.FinderContact)
	s.False(got.Claimed)
	s.True(at.Equal(got.UpdatedAt))
}

func (s *contractSuite) TestClaimTransitionIsOneShot() {
	ctx := context.Background()
	rec := s.passport("AB123456")
	rec.Status = models.StatusLost
	s.Require().NoError(s.store.Insert(ctx, rec))

	at := s.now.Add(time.Minute)
	filter := Filter{Category: models.CategoryPassport, UniqueKey: "AB123456"}.Unclaimed()
	got, err := s.store.ConditionalUpdate(ctx, filter, claimAt(at, time.Hour))
	s.Require().NoError(err)
	s.True(got.Claimed)
	s.Equal(models.StatusFound, got.Status)
	s.Require().NotNil(got.ClaimedAt)
	s.True(at.Equal(*got.ClaimedAt))
	s.Require().NotNil(got.ExpireAt)
	s.True(at.Add(time.Hour).Equal(*got.ExpireAt))

	_, err = s.store.ConditionalUpdate(ctx, filter, claimAt(at.Add(time.Minute), time.Hour))
	s.ErrorIs(err, sentinel.ErrNotFound)

	again, err := s.store.FindOne(ctx, filter.AnyClaimState())
	s.Require().NoError(err)
	s.True(at.Equal(*again.ClaimedAt), "claimed_at set exactly once")
}

func (s *contractSuite) TestConcurrentClaimsSucceedOnce() {
	ctx := context.Background()
	rec := s.passport("CD765432")
	s.Require().NoError(s.store.Insert(ctx, rec))

	const goroutines = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		notFound  atomic.Int32
	)
	filter := Filter{Category: models.CategoryPassport, UniqueKey: "CD765432"}.Unclaimed()
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.ConditionalUpdate(ctx, filter, claimAt(s.now, time.Hour))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrNotFound):
				notFound.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), notFound.Load())
}

// =============================================================================
// Expiry
// =============================================================================

func (s *contractSuite) TestDeleteExpired() {
	ctx := context.Background()
	expiring := s.passport("AB123456")
	fresh := s.passport("CD765432")
	unclaimed := s.passport("EF111111")
	for _, r := range []*models.Record{expiring, fresh, unclaimed} {
		s.Require().NoError(s.store.Insert(ctx, r))
	}

	_, err := s.store.ConditionalUpdate(ctx, Filter{ID: expiring.ID}.Unclaimed(), claimAt(s.now, time.Minute))
	s.Require().NoError(err)
	_, err = s.store.ConditionalUpdate(ctx, Filter{ID: fresh.ID}.Unclaimed(), claimAt(s.now, time.Hour))
	s.Require().NoError(err)

	n, err := s.store.DeleteExpired(ctx, s.now.Add(2*time.Minute))
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	_, err = s.store.FindOne(ctx, Filter{ID: expiring.ID})
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindOne(ctx, Filter{ID: fresh.ID})
	s.NoError(err, "inside grace window")
	_, err = s.store.FindOne(ctx, Filter{ID: unclaimed.ID})
	s.NoError(err, "unclaimed records never expire")

	s.NoError(s.store.Insert(ctx, s.passport("AB123456")), "unique key is free after removal")
}

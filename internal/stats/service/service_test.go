package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"lostfound/internal/stats/metrics"
	"lostfound/internal/stats/models"
	"lostfound/internal/stats/service/mocks"
	dErrors "lostfound/pkg/domain-errors"
	"lostfound/pkg/platform/circuit"
)

// =============================================================================
// Stats Service Test Suite
// =============================================================================
// Justification: increments must never surface backend failures to callers,
// and a failing backend must stop being hammered once the breaker opens.

type StatsServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	metrics *metrics.Metrics
	now     time.Time
	service *Service
}

func TestStatsServiceSuite(t *testing.T) {
	suite.Run(t, new(StatsServiceSuite))
}

func (s *StatsServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.service = s.newService()
}

func (s *StatsServiceSuite) newService(opts ...Option) *Service {
	breaker := circuit.New("stats",
		circuit.WithFailureThreshold(5),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return s.now }),
	)
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithBreaker(breaker),
	}
	svc, err := New(s.store, append(base, opts...)...)
	s.Require().NoError(err)
	return svc
}

func (s *StatsServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *StatsServiceSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}

func (s *StatsServiceSuite) TestIncrementWritesOne() {
	s.store.EXPECT().Increment(gomock.Any(), models.TotalDocuments, int64(1)).Return(nil)

	s.service.Increment(context.Background(), models.TotalDocuments)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Increments.WithLabelValues("totalDocuments")))
}

func (s *StatsServiceSuite) TestIncrementSwallowsFailure() {
	s.store.EXPECT().Increment(gomock.Any(), models.ClaimedDocuments, int64(1)).Return(errors.New("connection refused"))

	s.NotPanics(func() {
		s.service.Increment(context.Background(), models.ClaimedDocuments)
	})
	s.Equal(1.0, testutil.ToFloat64(s.metrics.DroppedUpdates.WithLabelValues("claimedDocuments", metrics.DropReasonWriteFailure)))
}

func (s *StatsServiceSuite) TestUnknownCounterIgnored() {
	s.service.Increment(context.Background(), models.CounterName("bogus"))
}

func (s *StatsServiceSuite) TestCircuitOpensAfterRepeatedFailures() {
	ctx := context.Background()
	s.store.EXPECT().Increment(gomock.Any(), models.TotalDocuments, int64(1)).
		Return(errors.New("down")).Times(5)

	for range 8 {
		s.service.Increment(ctx, models.TotalDocuments)
	}

	s.Equal(1.0, testutil.ToFloat64(s.metrics.CircuitOpen))
	s.Equal(3.0, testutil.ToFloat64(s.metrics.DroppedUpdates.WithLabelValues("totalDocuments", metrics.DropReasonCircuitOpen)))
}

func (s *StatsServiceSuite) TestCircuitProbesAfterCooldown() {
	ctx := context.Background()
	gomock.InOrder(
		s.store.EXPECT().Increment(gomock.Any(), models.TotalDocuments, int64(1)).
			Return(errors.New("down")).Times(5),
		s.store.EXPECT().Increment(gomock.Any(), models.TotalDocuments, int64(1)).
			Return(nil).Times(2),
	)

	for range 5 {
		s.service.Increment(ctx, models.TotalDocuments)
	}
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CircuitOpen))

	s.now = s.now.Add(2 * time.Minute)
	s.service.Increment(ctx, models.TotalDocuments)
	s.Equal(0.0, testutil.ToFloat64(s.metrics.CircuitOpen))

	s.service.Increment(ctx, models.TotalDocuments)
}

func (s *StatsServiceSuite) TestPublisherReplacesDirectWrite() {
	pub := mocks.NewMockPublisher(s.ctrl)
	svc := s.newService(WithPublisher(pub))

	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e models.Event) error {
			s.NotEmpty(e.ID)
			s.Equal(models.ClaimedDocuments, e.Counter)
			s.Equal(int64(1), e.Delta)
			return nil
		})

	svc.Increment(context.Background(), models.ClaimedDocuments)
}

func (s *StatsServiceSuite) TestApply() {
	s.Run("writes event delta", func() {
		s.store.EXPECT().Increment(gomock.Any(), models.TotalDocuments, int64(3)).Return(nil)
		err := s.service.Apply(context.Background(), models.Event{ID: "e1", Counter: models.TotalDocuments, Delta: 3})
		s.NoError(err)
	})

	s.Run("rejects unknown counter", func() {
		err := s.service.Apply(context.Background(), models.Event{ID: "e2", Counter: "nope", Delta: 1})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("returns store error", func() {
		s.store.EXPECT().Increment(gomock.Any(), models.ClaimedDocuments, int64(1)).Return(errors.New("down"))
		err := s.service.Apply(context.Background(), models.Event{ID: "e3", Counter: models.ClaimedDocuments, Delta: 1})
		s.Error(err)
	})
}

func (s *StatsServiceSuite) TestGet() {
	s.Run("returns counters", func() {
		s.store.EXPECT().Get(gomock.Any()).Return(&models.Counters{TotalDocuments: 4, ClaimedDocuments: 1}, nil)
		c, err := s.service.Get(context.Background())
		s.Require().NoError(err)
		s.Equal(int64(4), c.TotalDocuments)
	})

	s.Run("maps failure to unavailable", func() {
		s.store.EXPECT().Get(gomock.Any()).Return(nil, errors.New("down"))
		_, err := s.service.Get(context.Background())
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

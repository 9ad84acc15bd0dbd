package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"lostfound/internal/catalog"
	"lostfound/internal/records/metrics"
	"lostfound/internal/records/models"
	"lostfound/internal/records/store"
	statsmodels "lostfound/internal/stats/models"
	dErrors "lostfound/pkg/domain-errors"
)

const (
	// DefaultGracePeriod is how long a claimed record stays queryable.
	DefaultGracePeriod = 72 * time.Hour
	// MinGracePeriod keeps the window long enough for a claimant to read the response.
	MinGracePeriod = time.Minute

	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// Store is the persistence contract. ConditionalUpdate is the only mutual
// exclusion the engine relies on.
type Store interface {
	Insert(ctx context.Context, r *models.Record) error
	FindOne(ctx context.Context, f store.Filter) (*models.Record, error)
	Find(ctx context.Context, f store.Filter, limit int) ([]*models.Record, error)
	ConditionalUpdate(ctx context.Context, f store.Filter, u store.Update) (*models.Record, error)
}

// StatsCounter receives best-effort counter increments. Implementations must
// not block the caller on backend failures.
type StatsCounter interface {
	Increment(ctx context.Context, name statsmodels.CounterName)
}

// Service implements dedup-on-report and claim resolution for every category.
type Service struct {
	store   Store
	catalog *catalog.Catalog
	stats   StatsCounter
	grace   time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithStats(stats StatsCounter) Option {
	return func(s *Service) {
		s.stats = stats
	}
}

// WithGracePeriod sets how long claimed records survive before expiry.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Service) {
		s.grace = d
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service. Returns an error when the grace period is below
// MinGracePeriod.
func New(st Store, cat *catalog.Catalog, opts ...Option) (*Service, error) {
	if st == nil || cat == nil {
		return nil, fmt.Errorf("records service requires a store and a catalog")
	}
	s := &Service{
		store:   st,
		catalog: cat,
		grace:   DefaultGracePeriod,
		logger:  slog.Default(),
		tracer:  otel.Tracer("lostfound/records"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.grace < MinGracePeriod {
		return nil, fmt.Errorf("grace period %s is below minimum %s", s.grace, MinGracePeriod)
	}
	return s, nil
}

// GracePeriod returns the configured claim grace window.
func (s *Service) GracePeriod() time.Duration {
	return s.grace
}

func (s *Service) increment(ctx context.Context, name statsmodels.CounterName) {
	if s.stats != nil {
		s.stats.Increment(ctx, name)
	}
}

// storeUnavailable hides the cause from callers and logs it.
func (s *Service) storeUnavailable(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "record store operation failed",
		"operation", op,
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "record store unavailable")
}

func descriptor(category models.Category) (models.Descriptor, error) {
	return models.DescriptorFor(category)
}

// Package service keeps the advisory document counters. Increments are
// best-effort: a failing backend is logged, counted and skipped, and never
// fails the record mutation that triggered it.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lostfound/internal/stats/metrics"
	"lostfound/internal/stats/models"
	dErrors "lostfound/pkg/domain-errors"
	"lostfound/pkg/platform/circuit"
	"lostfound/pkg/requestcontext"
)

type Store interface {
	Increment(ctx context.Context, name models.CounterName, delta int64) error
	Get(ctx context.Context) (*models.Counters, error)
	Ensure(ctx context.Context) error
}

// Publisher carries increments to an asynchronous consumer instead of the store.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

type Service struct {
	store     Store
	publisher Publisher
	breaker   *circuit.Breaker
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

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

// WithPublisher routes increments through p. The store is then only written
// by whoever consumes the published events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		if b != nil {
			s.breaker = b
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("stats store is required")
	}
	s := &Service{
		store:   store,
		breaker: circuit.New("stats"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Increment adds one to the named counter. Failures are logged and counted,
// never returned.
func (s *Service) Increment(ctx context.Context, name models.CounterName) {
	if !name.Valid() {
		s.logger.ErrorContext(ctx, "unknown stats counter", "counter", name)
		return
	}
	if !s.breaker.Allow() {
		s.metrics.IncrementDropped(string(name), metrics.DropReasonCircuitOpen)
		return
	}

	if err := s.write(ctx, name); err != nil {
		_, change := s.breaker.RecordFailure()
		if change.Opened {
			s.metrics.SetCircuitOpen(true)
			s.logger.WarnContext(ctx, "stats circuit opened", "breaker", s.breaker.Name())
		}
		s.metrics.IncrementDropped(string(name), metrics.DropReasonWriteFailure)
		s.logger.ErrorContext(ctx, "stats increment failed",
			"request_id", requestcontext.RequestID(ctx),
			"counter", name,
			"error", err,
		)
		return
	}

	_, change := s.breaker.RecordSuccess()
	if change.Closed {
		s.metrics.SetCircuitOpen(false)
		s.logger.InfoContext(ctx, "stats circuit closed", "breaker", s.breaker.Name())
	}
	s.metrics.IncrementWritten(string(name))
}

func (s *Service) write(ctx context.Context, name models.CounterName) error {
	if s.publisher != nil {
		return s.publisher.Publish(ctx, models.Event{
			ID:      uuid.NewString(),
			Counter: name,
			Delta:   1,
			At:      requestcontext.Now(ctx).UTC().Truncate(time.Millisecond),
		})
	}
	return s.store.Increment(ctx, name, 1)
}

// Apply writes a consumed event to the store. Errors are returned so the
// consumer can hold back the offset.
func (s *Service) Apply(ctx context.Context, event models.Event) error {
	if !event.Counter.Valid() || event.Delta <= 0 {
		return dErrors.Newf(dErrors.CodeValidation, "invalid stats event %q", event.ID)
	}
	if err := s.store.Increment(ctx, event.Counter, event.Delta); err != nil {
		return fmt.Errorf("apply stats event %s: %w", event.ID, err)
	}
	return nil
}

// Get returns the current counters.
func (s *Service) Get(ctx context.Context) (*models.Counters, error) {
	c, err := s.store.Get(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "stats read failed", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "stats store unavailable")
	}
	return c, nil
}

// Ensure creates the (0,0) row on first boot.
func (s *Service) Ensure(ctx context.Context) error {
	if err := s.store.Ensure(ctx); err != nil {
		return fmt.Errorf("ensure stats row: %w", err)
	}
	return nil
}

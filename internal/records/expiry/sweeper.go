// Package expiry removes claimed records once their grace window has elapsed,
// for stores that have no native TTL.
package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lostfound/internal/records/metrics"
)

// DefaultInterval is how often the sweeper runs when no interval is configured.
const DefaultInterval = time.Minute

type Store interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically deletes expired records.
type Sweeper struct {
	store    Store
	interval time.Duration
	clock    func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Sweeper)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Sweeper) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func New(store Store, interval time.Duration, opts ...Option) (*Sweeper, error) {
	if store == nil {
		return nil, fmt.Errorf("expiry sweeper requires a store")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Sweeper{
		store:    store,
		interval: interval,
		clock:    time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run sweeps every interval until ctx is cancelled. Failed sweeps are logged
// and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.SweepAt(ctx, s.clock())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SweepAt removes every record expired as of now.
// Exported for testability; Run passes the sweeper clock.
func (s *Sweeper) SweepAt(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "expiry sweep failed", "error", err)
		return 0, fmt.Errorf("sweep expired records: %w", err)
	}
	s.metrics.AddExpired(n)
	if n > 0 {
		s.logger.InfoContext(ctx, "expired records removed", "count", n)
	}
	return n, nil
}

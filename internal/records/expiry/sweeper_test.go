package expiry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/records/metrics"
	"lostfound/internal/records/models"
	"lostfound/internal/records/store"
)

type failingStore struct {
	calls atomic.Int32
}

func (f *failingStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	f.calls.Add(1)
	return 0, errors.New("connection reset")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepAtRemovesExpiredClaims(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := store.NewInMemoryStore()

	for _, id := range []string{"a", "b"} {
		require.NoError(t, st.Insert(ctx, &models.Record{ID: id, Category: models.CategoryBaggage, CreatedAt: now}))
	}
	_, err := st.ConditionalUpdate(ctx, store.Filter{ID: "a"}.Unclaimed(), store.Update{
		Claim: &store.ClaimMark{At: now, ExpireAt: now.Add(time.Hour)},
		At:    now,
	})
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	sweeper, err := New(st, time.Minute, WithLogger(discardLogger()), WithMetrics(m))
	require.NoError(t, err)

	n, err := sweeper.SweepAt(ctx, now.Add(59*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "still inside grace window")

	n, err = sweeper.SweepAt(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ExpiredRemoved))

	_, err = st.FindOne(ctx, store.Filter{ID: "a"})
	assert.Error(t, err)
	_, err = st.FindOne(ctx, store.Filter{ID: "b"})
	assert.NoError(t, err)
}

func TestSweepAtReportsStoreErrors(t *testing.T) {
	sweeper, err := New(&failingStore{}, time.Minute, WithLogger(discardLogger()))
	require.NoError(t, err)

	_, err = sweeper.SweepAt(context.Background(), time.Now())
	assert.ErrorContains(t, err, "connection reset")
}

func TestRunKeepsSweepingAfterFailures(t *testing.T) {
	fs := &failingStore{}
	sweeper, err := New(fs, 5*time.Millisecond, WithLogger(discardLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	assert.Eventually(t, func() bool { return fs.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestNewDefaults(t *testing.T) {
	_, err := New(nil, time.Minute)
	assert.Error(t, err)

	sweeper, err := New(store.NewInMemoryStore(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultInterval, sweeper.interval)
}

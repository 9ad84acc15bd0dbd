package store

import (
	"context"
	"math"
	"sync"
	"time"

	"lostfound/internal/ratelimit/models"
)

// InMemoryStore implements a per-key sliding window. It is not shared across
// processes; use RedisStore when running more than one instance.
//
// Keys come from client-controlled headers, so idle keys must be swept with
// StartCleanup or RemoveExpiredAt.
type InMemoryStore struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
	clock   func() time.Time
}

type slidingWindow struct {
	stamps []time.Time
	size   time.Duration
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{windows: make(map[string]*slidingWindow), clock: time.Now}
}

// WithClock replaces the store's clock. Test use only.
func (s *InMemoryStore) WithClock(clock func() time.Time) *InMemoryStore {
	s.clock = clock
	return s
}

func (s *InMemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	w, ok := s.windows[key]
	if !ok {
		w = &slidingWindow{}
		s.windows[key] = w
	}
	w.size = window
	stamps := prune(w.stamps, now.Add(-window))

	if len(stamps) >= limit {
		w.stamps = stamps
		resetAt := stamps[0].Add(window)
		return &models.Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(resetAt.Sub(now)),
		}, nil
	}

	stamps = append(stamps, now)
	w.stamps = stamps
	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(stamps),
		ResetAt:   stamps[0].Add(window),
	}, nil
}

// StartCleanup removes idle keys every interval until ctx is cancelled.
func (s *InMemoryStore) StartCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RemoveExpiredAt(s.clock())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RemoveExpiredAt drops every key with no request inside its window as of now.
// It returns the number of keys removed.
func (s *InMemoryStore) RemoveExpiredAt(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, w := range s.windows {
		w.stamps = prune(w.stamps, now.Add(-w.size))
		if len(w.stamps) == 0 {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// prune drops timestamps at or before cutoff. Stamps are in insertion order.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}

func retryAfter(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}

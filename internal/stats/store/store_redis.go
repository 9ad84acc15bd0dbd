package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"lostfound/internal/stats/models"
)

// DefaultRedisKey is the hash holding both counters.
const DefaultRedisKey = "lostfound:stats"

// RedisStore keeps the counters in a single hash and relies on HINCRBY for
// atomic increments.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: DefaultRedisKey}
}

func (s *RedisStore) Increment(ctx context.Context, name models.CounterName, delta int64) error {
	if !name.Valid() {
		return fmt.Errorf("unknown counter %q", name)
	}
	if err := s.client.HIncrBy(ctx, s.key, string(name), delta).Err(); err != nil {
		return fmt.Errorf("increment %s: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context) (*models.Counters, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	var c models.Counters
	for _, name := range []models.CounterName{models.TotalDocuments, models.ClaimedDocuments} {
		raw, ok := values[string(name)]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		c.Add(name, n)
	}
	return &c, nil
}

// Ensure creates both fields at zero without touching existing values.
func (s *RedisStore) Ensure(ctx context.Context) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, s.key, string(models.TotalDocuments), 0)
		pipe.HSetNX(ctx, s.key, string(models.ClaimedDocuments), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ensure stats: %w", err)
	}
	return nil
}

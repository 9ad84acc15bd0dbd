package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"lostfound/internal/platform/config"
	platformmongo "lostfound/internal/platform/mongo"
	"lostfound/internal/platform/postgres"
	platformredis "lostfound/internal/platform/redis"
	ratelimitmw "lostfound/internal/ratelimit/middleware"
	ratelimitstore "lostfound/internal/ratelimit/store"
	"lostfound/internal/records/expiry"
	recordsservice "lostfound/internal/records/service"
	recordsstore "lostfound/internal/records/store"
	statsservice "lostfound/internal/stats/service"
	statsstore "lostfound/internal/stats/store"
)

// backends holds the opened stores and everything needed to close them.
type backends struct {
	records  recordsservice.Store
	// expiring is nil when the store expires records on its own (Mongo TTL).
	expiring expiry.Store
	stats    statsservice.Store
	limiter  ratelimitmw.Store
	checks   map[string]func(context.Context) error
	closers  []func(context.Context) error

	// sweepLimiter is set for the in-memory limiter, which must drop idle keys.
	sweepLimiter func(ctx context.Context, interval time.Duration) error
}

func (b *backends) Close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i](ctx)
	}
}

// openBackends connects the configured record store and the stats store, and
// applies schemas and indexes concurrently.
func openBackends(ctx context.Context, cfg config.Server, logger *slog.Logger) (*backends, error) {
	b := &backends{checks: map[string]func(context.Context) error{}}
	var (
		bootstrap []func(context.Context) error
		mongoDB   *mongo.Database
		pgDB      *sql.DB
	)

	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, db, err := platformmongo.Connect(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, err
		}
		mongoDB = db
		b.closers = append(b.closers, client.Disconnect)
		b.checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		st := recordsstore.NewMongo(db)
		b.records = st
		bootstrap = append(bootstrap, st.EnsureIndexes)
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		pgDB = db
		b.closers = append(b.closers, func(context.Context) error { return db.Close() })
		b.checks["postgres"] = db.PingContext
		st := recordsstore.NewPostgres(db)
		b.records, b.expiring = st, st
		bootstrap = append(bootstrap, st.Migrate)
	default:
		st := recordsstore.NewInMemoryStore()
		b.records, b.expiring = st, st
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis, logger)
	if err != nil {
		b.Close(ctx)
		return nil, err
	}
	switch {
	case redisClient != nil:
		b.closers = append(b.closers, func(context.Context) error { return redisClient.Close() })
		b.checks["redis"] = redisClient.Health
		b.stats = statsstore.NewRedis(redisClient.Client)
		b.limiter = ratelimitstore.NewRedis(redisClient.Client)
	case mongoDB != nil:
		b.stats = statsstore.NewMongo(mongoDB)
	case pgDB != nil:
		st := statsstore.NewPostgres(pgDB)
		b.stats = st
		bootstrap = append(bootstrap, st.Migrate)
	default:
		b.stats = statsstore.NewInMemoryStore()
	}

	if b.limiter == nil {
		st := ratelimitstore.NewInMemoryStore()
		b.limiter, b.sweepLimiter = st, st.StartCleanup
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, step := range bootstrap {
		g.Go(func() error { return step(gctx) })
	}
	if err := g.Wait(); err != nil {
		b.Close(ctx)
		return nil, fmt.Errorf("bootstrap stores: %w", err)
	}
	return b, nil
}

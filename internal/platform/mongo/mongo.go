// Package mongo opens the MongoDB connection used by the record and stats stores.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lostfound/internal/platform/config"
)

const connectTimeout = 15 * time.Second

// Connect dials and pings MongoDB, returning the configured database.
func Connect(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	start := time.Now()
	logger.InfoContext(ctx, "connecting to mongo", "uri", RedactURI(cfg.URI), "db", cfg.Database)

	dctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	logger.InfoContext(ctx, "mongo connected", "elapsed", time.Since(start).Round(time.Millisecond))
	return client, client.Database(cfg.Database), nil
}

// RedactURI masks credentials so the URI can be logged.
func RedactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}

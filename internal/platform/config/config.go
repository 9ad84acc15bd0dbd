package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends for records.
const (
	BackendMemory   = "memory"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

const (
	DefaultAddr          = ":8080"
	DefaultMongoDB       = "lostfound"
	DefaultStatsTopic    = "lostfound.stats"
	DefaultGracePeriod   = 72 * time.Hour
	MinGracePeriod       = time.Minute
	DefaultSweepInterval = time.Minute
	DefaultRateLimit     = 60
	DefaultRateWindow    = time.Minute
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	StoreBackend  string
	CatalogFile   string
	GracePeriod   time.Duration
	SweepInterval time.Duration
	Mongo         MongoConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	RateLimit     RateLimitConfig
	Log           LogConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the stats counter connection. An empty URL leaves Redis off.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables asynchronous stats when Brokers is set.
type KafkaConfig struct {
	Brokers    []string
	StatsTopic string
	Group      string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// RateLimitConfig caps requests per client IP on the category endpoints.
// Requests of zero disables the limiter.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:         getenv("LOSTFOUND_ADDR", DefaultAddr),
		StoreBackend: strings.ToLower(getenv("STORE_BACKEND", BackendMemory)),
		CatalogFile:  getenv("CATALOG_FILE", ""),
		Mongo: MongoConfig{
			URI:      getenv("MONGO_URI", ""),
			Database: getenv("MONGO_DB", DefaultMongoDB),
		},
		Postgres: PostgresConfig{
			URL:             getenv("DATABASE_URL", ""),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          getenv("REDIS_URL", ""),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(getenv("KAFKA_BROKERS", "")),
			StatsTopic: getenv("KAFKA_STATS_TOPIC", DefaultStatsTopic),
			Group:      getenv("KAFKA_STATS_GROUP", "lostfound-stats"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getenv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getenv("LOG_FORMAT", "json")),
		},
	}

	var err error
	if cfg.GracePeriod, err = durationEnv("CLAIM_GRACE_PERIOD", DefaultGracePeriod); err != nil {
		return Server{}, err
	}
	if cfg.SweepInterval, err = durationEnv("EXPIRY_SWEEP_INTERVAL", DefaultSweepInterval); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.Window, err = durationEnv("RATE_LIMIT_WINDOW", DefaultRateWindow); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.Requests, err = intEnv("RATE_LIMIT_REQUESTS", DefaultRateLimit); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field rules. Call it after flags are applied.
func (c Server) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo backend")
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q (want memory, mongo or postgres)", c.StoreBackend)
	}
	if c.GracePeriod < MinGracePeriod {
		return fmt.Errorf("CLAIM_GRACE_PERIOD must be at least %s", MinGracePeriod)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("EXPIRY_SWEEP_INTERVAL must be positive")
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text")
	}
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, def int) (int, error) {
	raw := getenv(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

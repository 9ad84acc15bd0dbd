package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"lostfound/internal/catalog"
	"lostfound/internal/platform/config"
	"lostfound/internal/platform/httpserver"
	"lostfound/internal/platform/kafka/consumer"
	"lostfound/internal/platform/kafka/producer"
	"lostfound/internal/platform/kafka/topics"
	"lostfound/internal/platform/logger"
	platformmetrics "lostfound/internal/platform/metrics"
	"lostfound/internal/platform/middleware"
	ratelimitmw "lostfound/internal/ratelimit/middleware"
	"lostfound/internal/records/expiry"
	recordshandler "lostfound/internal/records/handler"
	recordsmetrics "lostfound/internal/records/metrics"
	recordsservice "lostfound/internal/records/service"
	statshandler "lostfound/internal/stats/handler"
	statskafka "lostfound/internal/stats/kafka"
	statsmetrics "lostfound/internal/stats/metrics"
	statsservice "lostfound/internal/stats/service"
	"lostfound/pkg/platform/httputil"
	"lostfound/pkg/platform/middleware/requesttime"
)

const requestTimeout = 30 * time.Second

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "lostfound: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	flags := pflag.NewFlagSet("lostfound", pflag.ContinueOnError)
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flags.StringVar(&cfg.CatalogFile, "catalog", cfg.CatalogFile, "path to a JSONC catalog file (default: embedded)")
	flags.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "record store backend: memory, mongo or postgres")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(log)

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	be, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer be.Close(context.Background())

	g, gctx := errgroup.WithContext(ctx)

	sm := statsmetrics.New(reg)
	statsOpts := []statsservice.Option{
		statsservice.WithLogger(log),
		statsservice.WithMetrics(sm),
	}
	var statsConsumer *consumer.Consumer
	if cfg.Kafka.Enabled() {
		prod, err := producer.New(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		defer prod.Close()
		if err := topics.Ensure(ctx, prod.Client(), 3, cfg.Kafka.StatsTopic); err != nil {
			return err
		}
		statsOpts = append(statsOpts, statsservice.WithPublisher(statskafka.NewPublisher(prod, cfg.Kafka.StatsTopic)))
	}
	stats, err := statsservice.New(be.stats, statsOpts...)
	if err != nil {
		return err
	}
	if err := stats.Ensure(ctx); err != nil {
		return err
	}
	if cfg.Kafka.Enabled() {
		statsConsumer, err = consumer.New(consumer.Config{
			Brokers: cfg.Kafka.Brokers,
			Group:   cfg.Kafka.Group,
			Topics:  []string{cfg.Kafka.StatsTopic},
		}, statskafka.NewEventHandler(stats, log, sm), consumer.WithLogger(log))
		if err != nil {
			return err
		}
	}

	rm := recordsmetrics.New(reg)
	records, err := recordsservice.New(be.records, cat,
		recordsservice.WithLogger(log),
		recordsservice.WithMetrics(rm),
		recordsservice.WithStats(stats),
		recordsservice.WithGracePeriod(cfg.GracePeriod),
	)
	if err != nil {
		return err
	}

	limiter := ratelimitmw.New(be.limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window, ratelimitmw.WithLogger(log))
	router := newRouter(log, reg, be, limiter, records, stats)
	srv := httpserver.New(cfg.Addr, router)

	g.Go(func() error {
		log.InfoContext(gctx, "starting lostfound", "addr", cfg.Addr, "store", cfg.StoreBackend, "kafka", cfg.Kafka.Enabled(), "grace_period", records.GracePeriod())
		return httpserver.Run(gctx, srv)
	})
	if be.expiring != nil {
		sweeper, err := expiry.New(be.expiring, cfg.SweepInterval,
			expiry.WithLogger(log),
			expiry.WithMetrics(rm),
		)
		if err != nil {
			return err
		}
		g.Go(func() error { return sweeper.Run(gctx) })
	}
	if be.sweepLimiter != nil && cfg.RateLimit.Window > 0 {
		g.Go(func() error { return be.sweepLimiter(gctx, cfg.RateLimit.Window) })
	}
	if statsConsumer != nil {
		g.Go(func() error { return statsConsumer.Run(gctx) })
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("lostfound stopped")
	return nil
}

func newRouter(log *slog.Logger, reg *prometheus.Registry, be *backends, limiter *ratelimitmw.Middleware, records *recordsservice.Service, stats *statsservice.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(platformmetrics.New(reg)))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", healthHandler(be.checks))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	statshandler.New(stats, log).Register(r)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Limit)
		recordshandler.New(records, log).Register(r)
	})
	return r
}

func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status[name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		httputil.WriteJSON(w, code, map[string]any{"status": http.StatusText(code), "checks": status})
	}
}

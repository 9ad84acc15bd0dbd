package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/catalog"
	"lostfound/internal/platform/config"
	ratelimitmw "lostfound/internal/ratelimit/middleware"
	recordsservice "lostfound/internal/records/service"
	statsservice "lostfound/internal/stats/service"
)

func newTestRouter(t *testing.T) (http.Handler, *backends) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	be, err := openBackends(context.Background(), config.Server{StoreBackend: config.BackendMemory}, log)
	require.NoError(t, err)

	cat, err := catalog.Default()
	require.NoError(t, err)
	stats, err := statsservice.New(be.stats, statsservice.WithLogger(log))
	require.NoError(t, err)
	records, err := recordsservice.New(be.records, cat,
		recordsservice.WithLogger(log),
		recordsservice.WithStats(stats),
	)
	require.NoError(t, err)

	limiter := ratelimitmw.New(be.limiter, 100, time.Minute, ratelimitmw.WithLogger(log))
	return newRouter(log, prometheus.NewRegistry(), be, limiter, records, stats), be
}

func TestRouterReportThenStats(t *testing.T) {
	router, _ := newTestRouter(t)

	body, err := json.Marshal(map[string]any{
		"fields": map[string]string{
			"passport_number": "AB123456",
			"last_name":       "Moyo",
		},
		"doc_location":   "Harare Central Police",
		"finder_contact": "0778123456",
	})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/passport/reports", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var counters map[string]int64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&counters))
	assert.Equal(t, int64(1), counters["totalDocuments"])
	assert.Equal(t, int64(0), counters["claimedDocuments"])
}

func TestHealthz(t *testing.T) {
	router, be := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	be.checks["redis"] = func(context.Context) error { return errors.New("down") }
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

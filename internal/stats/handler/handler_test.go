package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/stats/models"
	dErrors "lostfound/pkg/domain-errors"
	"lostfound/pkg/testutil"
)

type stubService struct {
	counters *models.Counters
	err      error
}

func (s stubService) Get(context.Context) (*models.Counters, error) {
	return s.counters, s.err
}

func serve(t *testing.T, svc Service) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	return rec
}

func TestHandleGetStats(t *testing.T) {
	rec := serve(t, stubService{counters: &models.Counters{TotalDocuments: 7, ClaimedDocuments: 2}})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, map[string]int64{"totalDocuments": 7, "claimedDocuments": 2}, body)
}

func TestHandleGetStatsUnavailable(t *testing.T) {
	rec := serve(t, stubService{err: dErrors.New(dErrors.CodeUnavailable, "stats store unavailable")})

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := testutil.Decode[testutil.ErrorResponse](t, rec)
	assert.Equal(t, "service_unavailable", body.Error)
	assert.Empty(t, body.ErrorDescription)
}

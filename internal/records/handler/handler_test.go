package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lostfound/internal/catalog"
	"lostfound/internal/records/models"
	"lostfound/internal/records/service"
	"lostfound/internal/records/store"
	"lostfound/pkg/platform/middleware/requesttime"
	"lostfound/pkg/testutil"
)

func newRecordsRouter(t *testing.T) http.Handler {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := service.New(store.NewInMemoryStore(), cat, service.WithLogger(logger))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(requesttime.Middleware)
	New(svc, logger).Register(r)
	return r
}

var baggage = map[string]string{
	"item_type":      "purse",
	"transport_type": "bus",
	"route_type":     "local",
	"province":       "Harare",
	"district":       "Harare",
	"destination":    "Copacabana",
}

func TestReportClaimFlow(t *testing.T) {
	router := newRecordsRouter(t)

	rec := testutil.Serve(t, router, http.MethodPost, "/api/v1/baggage/reports", ReportRequest{
		Fields: baggage, DocLocation: "Harare Central Police", FinderContact: "0778123456",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := testutil.Decode[models.ReportResult](t, rec)
	assert.Equal(t, models.OutcomeCreated, created.Outcome)

	rec = testutil.Serve(t, router, http.MethodPost, "/api/v1/baggage/reports", ReportRequest{
		Fields: baggage, DocLocation: "Harare Central Police", FinderContact: "0712345678",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	merged := testutil.Decode[models.ReportResult](t, rec)
	assert.Equal(t, models.OutcomeMergedContactUpdated, merged.Outcome)

	rec = testutil.Serve(t, router, http.MethodPost, "/api/v1/baggage/search", SearchRequest{Fields: map[string]string{"destination": "copacabana"}})
	require.Equal(t, http.StatusOK, rec.Code)
	found := testutil.Decode[SearchResponse](t, rec)
	require.Equal(t, 1, found.Count)
	assert.Empty(t, found.Results[0].DocLocation)
	assert.Empty(t, found.Results[0].FinderContact)

	rec = testutil.Serve(t, router, http.MethodPost, "/api/v1/baggage/claims", ClaimRequest{Fields: baggage})
	require.Equal(t, http.StatusOK, rec.Code)
	claimed := testutil.Decode[models.RecordView](t, rec)
	assert.True(t, claimed.Claimed)
	assert.Equal(t, "Harare Central Police", claimed.DocLocation)
	assert.Equal(t, "0712345678", claimed.FinderContact)

	rec = testutil.Serve(t, router, http.MethodGet, "/api/v1/baggage/records/"+claimed.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	viewed := testutil.Decode[models.RecordView](t, rec)
	if diff := cmp.Diff(claimed, viewed); diff != "" {
		t.Fatalf("view after claim differs (-claim +view):\n%s", diff)
	}
}

func TestProjectionWithholdsInternalFields(t *testing.T) {
	router := newRecordsRouter(t)
	rec := testutil.Serve(t, router, http.MethodPost, "/api/v1/passport/reports", ReportRequest{
		Fields:        map[string]string{"passport_number": "AB123456"},
		DocLocation:   "Harare Central Police",
		FinderContact: "0778123456",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for _, key := range []string{"unique_key", "expire_at", "updated_at"} {
		assert.NotContains(t, raw["record"], key)
	}
}

func TestReportConflict(t *testing.T) {
	router := newRecordsRouter(t)
	body := ReportRequest{
		Fields:        map[string]string{"licence_number": "DL12345"},
		DocLocation:   "Harare Central Police",
		FinderContact: "0778123456",
	}
	require.Equal(t, http.StatusCreated, testutil.Serve(t, router, http.MethodPost, "/api/v1/drivers_licence/reports", body).Code)

	body.FinderContact = "0712345678"
	rec := testutil.Serve(t, router, http.MethodPost, "/api/v1/drivers_licence/reports", body)
	testutil.AssertErrorResponse(t, rec, http.StatusConflict, "conflict")
}

func TestErrorResponses(t *testing.T) {
	router := newRecordsRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{
			name: "validation", method: http.MethodPost, path: "/api/v1/baggage/reports",
			body:   ReportRequest{Fields: map[string]string{"item_type": "unicycle"}, DocLocation: "x", FinderContact: "0778123456"},
			status: http.StatusBadRequest, code: "validation_error",
		},
		{
			name: "empty fields", method: http.MethodPost, path: "/api/v1/baggage/claims",
			body: ClaimRequest{}, status: http.StatusBadRequest, code: "validation_error",
		},
		{
			name: "missing body", method: http.MethodPost, path: "/api/v1/baggage/search",
			status: http.StatusBadRequest, code: "bad_request",
		},
		{
			name: "unknown category", method: http.MethodPost, path: "/api/v1/umbrella/claims",
			body: ClaimRequest{Fields: map[string]string{"a": "b"}}, status: http.StatusNotFound, code: "not_found",
		},
		{
			name: "malformed id", method: http.MethodGet, path: "/api/v1/passport/records/nope",
			status: http.StatusBadRequest, code: "bad_request",
		},
		{
			name: "unknown id", method: http.MethodGet, path: "/api/v1/passport/records/" + uuid.NewString(),
			status: http.StatusNotFound, code: "not_found",
		},
		{
			name: "negative limit", method: http.MethodPost, path: "/api/v1/baggage/search",
			body: SearchRequest{Fields: baggage, Limit: -1}, status: http.StatusBadRequest, code: "validation_error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.Serve(t, router, tt.method, tt.path, tt.body)
			testutil.AssertErrorResponse(t, rec, tt.status, tt.code)
		})
	}
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lostfound/internal/records/models"
	dErrors "lostfound/pkg/domain-errors"
	"lostfound/pkg/platform/httputil"
	"lostfound/pkg/requestcontext"
)

// Service defines the records operations exposed over HTTP.
type Service interface {
	ReportFound(ctx context.Context, category models.Category, report models.Report) (*models.ReportResult, error)
	Claim(ctx context.Context, category models.Category, criteria map[string]string) (*models.RecordView, error)
	View(ctx context.Context, category models.Category, id string) (*models.RecordView, error)
	Search(ctx context.Context, category models.Category, criteria map[string]string, limit int) ([]models.RecordView, error)
}

// Handler serves the per-category report, search, claim and view endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the category routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1/{category}", func(r chi.Router) {
		r.Post("/reports", h.HandleReportFound)
		r.Post("/search", h.HandleSearch)
		r.Post("/claims", h.HandleClaim)
		r.Get("/records/{id}", h.HandleView)
	})
}

// HandleReportFound answers 201 for a new record and 200 for a merge.
func (h *Handler) HandleReportFound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	category := models.Category(chi.URLParam(r, "category"))

	req, ok := httputil.DecodeAndPrepare[ReportRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ReportFound(ctx, category, req.toReport())
	if err != nil {
		h.writeError(ctx, w, "report found", category, err)
		return
	}

	status := http.StatusOK
	if result.Outcome == models.OutcomeCreated {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, result)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	category := models.Category(chi.URLParam(r, "category"))

	req, ok := httputil.DecodeAndPrepare[SearchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	results, err := h.service.Search(ctx, category, req.Fields, req.Limit)
	if err != nil {
		h.writeError(ctx, w, "search", category, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SearchResponse{Results: results, Count: len(results)})
}

func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	category := models.Category(chi.URLParam(r, "category"))

	req, ok := httputil.DecodeAndPrepare[ClaimRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.service.Claim(ctx, category, req.Fields)
	if err != nil {
		h.writeError(ctx, w, "claim", category, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandleView claims the record as a side effect, matching the claim endpoint.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := models.Category(chi.URLParam(r, "category"))

	view, err := h.service.View(ctx, category, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, "view", category, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, category models.Category, err error) {
	requestID := requestcontext.RequestID(ctx)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeUnavailable, dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestID,
			"category", category,
			"error", err,
		)
	default:
		h.logger.InfoContext(ctx, op+" rejected",
			"request_id", requestID,
			"category", category,
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

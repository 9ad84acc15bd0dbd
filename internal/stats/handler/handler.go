package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lostfound/internal/stats/models"
	"lostfound/pkg/platform/httputil"
	"lostfound/pkg/requestcontext"
)

type Service interface {
	Get(ctx context.Context) (*models.Counters, error)
}

// Handler serves the aggregate document counters.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/stats", h.HandleGetStats)
}

func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counters, err := h.service.Get(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get stats failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, counters)
}

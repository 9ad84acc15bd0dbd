package kafka

import (
	"context"
	"encoding/json"
	"log/slog"

	"lostfound/internal/platform/kafka/consumer"
	"lostfound/internal/stats/metrics"
	"lostfound/internal/stats/models"
	dErrors "lostfound/pkg/domain-errors"
)

var _ consumer.Handler = (*EventHandler)(nil)

// EventHandler applies stats events from the topic.
type EventHandler struct {
	applier Applier
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewEventHandler(applier Applier, logger *slog.Logger, m *metrics.Metrics) *EventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHandler{applier: applier, logger: logger, metrics: m}
}

// Handle returns an error only for retryable failures. Malformed events are
// logged and skipped so they do not block the partition.
func (h *EventHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var event models.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.WarnContext(ctx, "skipping malformed stats event",
			"key", string(msg.Key),
			"offset", msg.Offset,
			"error", err,
		)
		h.metrics.IncrementConsumeFailure()
		return nil
	}
	if err := h.applier.Apply(ctx, event); err != nil {
		h.metrics.IncrementConsumeFailure()
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.WarnContext(ctx, "skipping invalid stats event", "event_id", event.ID, "error", err)
			return nil
		}
		return err
	}
	h.metrics.IncrementConsumed()
	return nil
}

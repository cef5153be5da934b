package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/metrics"
	"github.com/dejobratic/posrelay/internal/orders/ports"
	"github.com/dejobratic/posrelay/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// StatusSyncer pushes order statuses to the external ordering platform.
// Only orders that came from the platform (ExternalID set) are synced.
// Failures are logged and reported as false, never returned.
type StatusSyncer struct {
	relay   ports.StatusRelay
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewStatusSyncer(relay ports.StatusRelay, logger *slog.Logger, metrics *metrics.Metrics) *StatusSyncer {
	return &StatusSyncer{
		relay:   relay,
		logger:  logger.With("component", "order_status_sync"),
		metrics: metrics,
	}
}

func (s *StatusSyncer) Sync(ctx context.Context, order domain.Order, status domain.OrderStatus) bool {
	if order.ExternalID == "" {
		s.metrics.RecordStatusRelay(ctx, metrics.OutcomeSkipped)
		return false
	}

	ctx, span := telemetry.StartSpan(ctx, "StatusRelay.RelayStatus")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", order.ID),
		attribute.String("order.external_id", order.ExternalID),
		attribute.String("order.status", string(status)),
	)

	err := s.relay.RelayStatus(ctx, order.ExternalID, status)
	switch {
	case errors.Is(err, ports.ErrRelayNotConfigured):
		s.metrics.RecordStatusRelay(ctx, metrics.OutcomeSkipped)
		s.logger.ErrorContext(ctx, "ordering platform instance missing, order status sync skipped",
			"order_id", order.ID,
		)
		return false
	case err != nil:
		s.metrics.RecordStatusRelay(ctx, metrics.OutcomeFailed)
		telemetry.RecordSpanError(span, err)
		s.logger.ErrorContext(ctx, "order status sync failed",
			"order_id", order.ID,
			"external_id", order.ExternalID,
			"status", status,
			"error", err,
		)
		return false
	}

	s.metrics.RecordStatusRelay(ctx, metrics.OutcomeSent)
	telemetry.SetSpanSuccess(span)
	s.logger.InfoContext(ctx, "order status synced",
		"order_id", order.ID,
		"status", status,
	)
	return true
}

// HandleOrderWebhookCommand is the body received on the order webhook.
type HandleOrderWebhookCommand struct {
	OrderRef domain.Ref
}

// OrderWebhookResult reports whether the platform was told about the order.
type OrderWebhookResult struct {
	Relayed bool `json:"relayed"`
}

// HandleOrderWebhookCommandHandler receives the order webhook and marks the
// order as being prepared on the ordering platform.
type HandleOrderWebhookCommandHandler struct {
	repo   ports.OrderRepository
	syncer *StatusSyncer
}

func NewHandleOrderWebhookCommandHandler(repo ports.OrderRepository, syncer *StatusSyncer) *HandleOrderWebhookCommandHandler {
	return &HandleOrderWebhookCommandHandler{repo: repo, syncer: syncer}
}

func (h *HandleOrderWebhookCommandHandler) Handle(ctx context.Context, cmd HandleOrderWebhookCommand) (OrderWebhookResult, error) {
	if cmd.OrderRef.IsZero() {
		return OrderWebhookResult{}, domain.ValidationError("order_id is required")
	}

	// Orders here are numbered by the database; any other reference cannot name one.
	id, ok := cmd.OrderRef.Int()
	if !ok {
		return OrderWebhookResult{}, domain.ErrOrderNotFound
	}

	order, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return OrderWebhookResult{}, err
	}

	return OrderWebhookResult{Relayed: h.syncer.Sync(ctx, *order, domain.StatusPreparing)}, nil
}

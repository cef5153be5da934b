package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/metrics"
	"github.com/dejobratic/posrelay/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// observeOrder runs fn inside a span and hands the outcome to report while
// that span is still current, so its log lines carry the trace.
// A duplicate platform order is an event on a successful span.
func observeOrder(
	ctx context.Context,
	spanName string,
	attrs []attribute.KeyValue,
	fn func(context.Context) (*domain.Order, error),
	report func(context.Context, *domain.Order, error),
) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, attrs...)

	order, err := fn(ctx)
	if order != nil {
		telemetry.AddSpanAttributes(span,
			attribute.Int64("order.id", order.ID),
			attribute.String("order.status", string(order.Status)),
		)
	}

	switch {
	case errors.Is(err, domain.ErrOrderExists):
		telemetry.AddSpanEvent(span, "order already exists")
		telemetry.SetSpanSuccess(span)
	case err != nil:
		telemetry.RecordSpanError(span, err)
	default:
		telemetry.SetSpanSuccess(span)
	}

	report(ctx, order, err)
	return order, err
}

type ObservableCreateOrderHandler struct {
	handler CreateOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCreateOrderHandler(handler CreateOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCreateOrderHandler {
	return &ObservableCreateOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	start := time.Now()
	attrs := []attribute.KeyValue{
		attribute.String("session.id", cmd.SessionID),
		attribute.Int64("order.amount_cents", cmd.AmountCents),
	}

	return observeOrder(ctx, "CreateOrderCommand.Handle", attrs,
		func(ctx context.Context) (*domain.Order, error) {
			return o.handler.Handle(ctx, cmd)
		},
		func(ctx context.Context, order *domain.Order, err error) {
			duplicate := errors.Is(err, domain.ErrOrderExists) && order != nil
			o.metrics.RecordOrderCreationDuration(ctx, time.Since(start).Seconds())
			o.metrics.RecordOrderCreated(ctx, err == nil || duplicate)

			switch {
			case duplicate:
				o.logger.InfoContext(ctx, "order already exists",
					"order_id", order.ID,
					"external_id", order.ExternalID,
				)
			case err != nil:
				o.logger.ErrorContext(ctx, "failed to create order",
					"error", err,
					"session_id", cmd.SessionID,
				)
			default:
				o.logger.InfoContext(ctx, "order created",
					"order_id", order.ID,
					"session_id", order.SessionID,
				)
			}
		},
	)
}

type ObservableSubmitOrderHandler struct {
	handler SubmitOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableSubmitOrderHandler(handler SubmitOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableSubmitOrderHandler {
	return &ObservableSubmitOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableSubmitOrderHandler) Handle(ctx context.Context, cmd SubmitOrderCommand) (*domain.Order, error) {
	attrs := []attribute.KeyValue{attribute.String("session.id", cmd.SessionID)}

	return observeOrder(ctx, "SubmitOrderCommand.Handle", attrs,
		func(ctx context.Context) (*domain.Order, error) {
			return o.handler.Handle(ctx, cmd)
		},
		func(ctx context.Context, order *domain.Order, err error) {
			o.metrics.RecordOrderSubmitted(ctx, err == nil)
			if err != nil {
				o.logger.ErrorContext(ctx, "failed to submit order",
					"error", err,
					"session_id", cmd.SessionID,
				)
				return
			}
			o.logger.InfoContext(ctx, "order submitted",
				"order_id", order.ID,
				"session_id", cmd.SessionID,
			)
		},
	)
}

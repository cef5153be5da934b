package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcomes recorded for best-effort outbound calls.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

type Metrics struct {
	ordersCreatedTotal    metric.Int64Counter
	orderCreationDuration metric.Float64Histogram
	ordersSubmittedTotal  metric.Int64Counter
	webhookNotifications  metric.Int64Counter
	webhookNotifyDuration metric.Float64Histogram
	statusRelaysTotal     metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.orderCreationDuration, err = meter.Float64Histogram(
		"order_creation_duration_seconds",
		metric.WithDescription("Duration of order creation operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_creation_duration histogram: %w", err)
	}

	m.ordersSubmittedTotal, err = meter.Int64Counter(
		"orders_submitted_total",
		metric.WithDescription("Total number of order submissions"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_submitted_total counter: %w", err)
	}

	m.webhookNotifications, err = meter.Int64Counter(
		"order_webhook_notifications_total",
		metric.WithDescription("Order webhook notifications by outcome"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_webhook_notifications_total counter: %w", err)
	}

	m.webhookNotifyDuration, err = meter.Float64Histogram(
		"order_webhook_notify_duration_seconds",
		metric.WithDescription("Duration of order webhook notifications"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_webhook_notify_duration histogram: %w", err)
	}

	m.statusRelaysTotal, err = meter.Int64Counter(
		"order_status_relay_total",
		metric.WithDescription("Order status relays to the ordering platform by outcome"),
		metric.WithUnit("{relay}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_status_relay_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", statusLabel(success)),
	))
}

func (m *Metrics) RecordOrderCreationDuration(ctx context.Context, durationSeconds float64) {
	m.orderCreationDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordOrderSubmitted(ctx context.Context, success bool) {
	m.ordersSubmittedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", statusLabel(success)),
	))
}

func (m *Metrics) RecordWebhookNotification(ctx context.Context, outcome string, durationSeconds float64) {
	m.webhookNotifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
	m.webhookNotifyDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordStatusRelay(ctx context.Context, outcome string) {
	m.statusRelaysTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

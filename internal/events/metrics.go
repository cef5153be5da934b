package events

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics tracks how events leave the service.
type Metrics struct {
	published      metric.Int64Counter
	publishLatency metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.published, err = meter.Int64Counter(
		"events_published_total",
		metric.WithDescription("Events handed to the bus, by topic and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create events_published counter: %w", err)
	}

	m.publishLatency, err = meter.Float64Histogram(
		"event_publish_latency_seconds",
		metric.WithDescription("Event publish latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create event_publish_latency histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordPublish(ctx context.Context, topic string, durationSeconds float64, publishErr error) {
	status := "success"
	if publishErr != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("topic", topic),
		attribute.String("status", status),
	)
	m.published.Add(ctx, 1, attrs)
	m.publishLatency.Record(ctx, durationSeconds, attrs)
}

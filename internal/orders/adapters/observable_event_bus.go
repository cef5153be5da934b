package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/posrelay/internal/events"
	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
	"github.com/dejobratic/posrelay/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *events.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *events.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) publish(ctx context.Context, spanName, topic string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs,
		attribute.String("event.type", topic),
		attribute.String("topic", topic),
	)...)

	start := time.Now()
	err := fn(ctx)
	e.metrics.RecordPublish(ctx, topic, time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (e *ObservableEventBus) PublishOrderSubmitted(ctx context.Context, orderID int64) error {
	return e.publish(ctx, "EventBus.PublishOrderSubmitted", events.TopicOrderSubmitted,
		[]attribute.KeyValue{attribute.Int64("order.id", orderID)},
		func(ctx context.Context) error {
			return e.bus.PublishOrderSubmitted(ctx, orderID)
		})
}

func (e *ObservableEventBus) PublishOrderStatusChanged(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	return e.publish(ctx, "EventBus.PublishOrderStatusChanged", events.TopicOrderStatusChanged,
		[]attribute.KeyValue{
			attribute.Int64("order.id", orderID),
			attribute.String("order.status", string(status)),
		},
		func(ctx context.Context) error {
			return e.bus.PublishOrderStatusChanged(ctx, orderID, status)
		})
}

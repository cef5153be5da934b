// Package events publishes order lifecycle events.
package events

import (
	"context"
	"log/slog"

	"github.com/dejobratic/posrelay/internal/orders/domain"
)

const (
	TopicOrderSubmitted     = "order.submitted"
	TopicOrderStatusChanged = "order.status_changed"
)

// LogBus writes events to the structured log instead of a broker. It stands
// in until a broker is wired and never fails.
type LogBus struct {
	logger *slog.Logger
}

func NewLogBus(logger *slog.Logger) *LogBus {
	return &LogBus{logger: logger.With("component", "event_bus")}
}

func (b *LogBus) PublishOrderSubmitted(ctx context.Context, orderID int64) error {
	b.logger.DebugContext(ctx, "event published",
		"topic", TopicOrderSubmitted,
		"order_id", orderID,
	)
	return nil
}

func (b *LogBus) PublishOrderStatusChanged(ctx context.Context, orderID int64, status domain.OrderStatus) error {
	b.logger.DebugContext(ctx, "event published",
		"topic", TopicOrderStatusChanged,
		"order_id", orderID,
		"status", status,
	)
	return nil
}

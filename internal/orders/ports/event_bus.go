package ports

import (
	"context"

	"github.com/dejobratic/posrelay/internal/orders/domain"
)

// EventBus defines the contract for publishing order lifecycle events.
type EventBus interface {
	PublishOrderSubmitted(ctx context.Context, orderID int64) error
	PublishOrderStatusChanged(ctx context.Context, orderID int64, status domain.OrderStatus) error
}

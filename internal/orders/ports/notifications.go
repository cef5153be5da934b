package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/posrelay/internal/orders/domain"
)

// OrderHandle is anything the host can name with an order reference.
type OrderHandle interface {
	Ref() domain.Ref
}

// CurrentOrderProvider resolves the order that is active on a POS session.
// It returns ok=false when the session has no active order.
type CurrentOrderProvider interface {
	CurrentOrder(ctx context.Context, sessionID string) (order OrderHandle, ok bool, err error)
}

// RemoteCaller performs one outbound call to a backend endpoint. Transport,
// authentication and timeouts are owned by the implementation.
type RemoteCaller interface {
	Call(ctx context.Context, path string, payload any) error
}

// ErrRelayNotConfigured is returned by a StatusRelay that has no platform
// endpoint or credentials to talk to.
var ErrRelayNotConfigured = errors.New("status relay not configured")

// StatusRelay forwards an order status to the external ordering platform.
type StatusRelay interface {
	RelayStatus(ctx context.Context, externalID string, status domain.OrderStatus) error
}

// OrderWebhookPath is the backend route notified after an order is submitted.
const OrderWebhookPath = "/pos/order/webhook"

// OrderWebhookPayload is the body sent to OrderWebhookPath. It carries the
// order reference only.
type OrderWebhookPayload struct {
	OrderID domain.Ref `json:"order_id"`
}

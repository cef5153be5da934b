// Package ordertech relays order statuses to the OrderTech ordering platform.
package ordertech

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
	"github.com/dejobratic/posrelay/internal/rpc"
)

const orderStatusPath = "/api/integrations/odoo/webhook/order-status"

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// Configured reports whether both the platform URL and token are set.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Token) != ""
}

type statusUpdate struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// Client implements ports.StatusRelay against the platform's order-status
// webhook. Only a 201 response counts as accepted.
type Client struct {
	rpc *rpc.Client
	err error
}

// NewClient builds a relay for cfg. An unconfigured relay is still usable:
// every call reports ports.ErrRelayNotConfigured.
func NewClient(cfg Config, opts ...rpc.Option) *Client {
	if !cfg.Configured() {
		return &Client{err: ports.ErrRelayNotConfigured}
	}

	opts = append([]rpc.Option{
		rpc.WithBearerToken(strings.TrimSpace(cfg.Token)),
		rpc.WithAcceptedStatus(http.StatusCreated),
	}, opts...)

	client, err := rpc.NewClient(rpc.Config{BaseURL: cfg.URL, Timeout: cfg.Timeout}, opts...)
	if err != nil {
		return &Client{err: err}
	}
	return &Client{rpc: client}
}

var _ ports.StatusRelay = (*Client)(nil)

func (c *Client) RelayStatus(ctx context.Context, externalID string, status domain.OrderStatus) error {
	if c.err != nil {
		return c.err
	}
	return c.rpc.Call(ctx, orderStatusPath, statusUpdate{OrderID: externalID, Status: string(status)})
}

package queries

import (
	"context"
	"errors"
	"strings"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
)

// CurrentOrderQuery asks for the order active on a POS session.
type CurrentOrderQuery struct {
	SessionID string
}

func (q CurrentOrderQuery) Validate() error {
	if strings.TrimSpace(q.SessionID) == "" {
		return domain.ValidationError("session_id is required")
	}
	return nil
}

// CurrentOrderQueryHandler resolves a session's active order.
type CurrentOrderQueryHandler struct {
	orders   ports.OrderRepository
	sessions ports.SessionRepository
}

func NewCurrentOrderQueryHandler(orders ports.OrderRepository, sessions ports.SessionRepository) *CurrentOrderQueryHandler {
	return &CurrentOrderQueryHandler{orders: orders, sessions: sessions}
}

// Handle returns domain.ErrNoActiveOrder when nothing is selected on the session.
func (h *CurrentOrderQueryHandler) Handle(ctx context.Context, query CurrentOrderQuery) (*domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	session, err := h.sessions.GetByID(ctx, query.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasActiveOrder() {
		return nil, domain.ErrNoActiveOrder
	}

	order, err := h.orders.GetByID(ctx, *session.CurrentOrderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, domain.ErrNoActiveOrder
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CurrentOrder implements ports.CurrentOrderProvider. A missing session or
// an empty selection both read as "no active order".
func (h *CurrentOrderQueryHandler) CurrentOrder(ctx context.Context, sessionID string) (ports.OrderHandle, bool, error) {
	order, err := h.Handle(ctx, CurrentOrderQuery{SessionID: sessionID})
	switch {
	case errors.Is(err, domain.ErrNoActiveOrder), errors.Is(err, domain.ErrSessionNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return order, true, nil
}

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
)

type CancelOrderCommand struct {
	OrderID int64
}

// CancelOrderCommandHandler cancels an order that has not finished yet and
// releases it from its session if it was selected there.
type CancelOrderCommandHandler struct {
	repo     ports.OrderRepository
	sessions ports.SessionRepository
	events   ports.EventBus
}

func NewCancelOrderCommandHandler(
	repo ports.OrderRepository,
	sessions ports.SessionRepository,
	events ports.EventBus,
) *CancelOrderCommandHandler {
	return &CancelOrderCommandHandler{
		repo:     repo,
		sessions: sessions,
		events:   events,
	}
}

func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*domain.Order, error) {
	order, err := h.repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if order.IsTerminal() {
		return nil, fmt.Errorf("cannot cancel order in status %s: %w", order.Status, domain.ErrInvalidTransition)
	}

	if err := h.repo.UpdateStatus(ctx, order.ID, domain.StatusCanceled); err != nil {
		return nil, err
	}
	order.Status = domain.StatusCanceled
	order.UpdatedAt = time.Now().UTC()

	session, err := h.sessions.GetByID(ctx, order.SessionID)
	if err == nil && session.HasActiveOrder() && *session.CurrentOrderID == order.ID {
		if err := h.sessions.SetCurrentOrder(ctx, session.ID, nil); err != nil {
			return order, fmt.Errorf("order canceled but failed to clear session: %w", err)
		}
	}

	if err := h.events.PublishOrderStatusChanged(ctx, order.ID, order.Status); err != nil {
		return order, fmt.Errorf("order canceled but failed to publish event: %w", err)
	}

	return order, nil
}

package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
)

// SubmitOrderCommand sends the active order of a session for preparation.
type SubmitOrderCommand struct {
	SessionID string
}

func (c SubmitOrderCommand) Validate() error {
	if strings.TrimSpace(c.SessionID) == "" {
		return domain.ValidationError("session_id is required")
	}
	return nil
}

type SubmitOrderHandler interface {
	Handle(ctx context.Context, cmd SubmitOrderCommand) (*domain.Order, error)
}

type SubmitOrderCommandHandler struct {
	repo     ports.OrderRepository
	sessions ports.SessionRepository
	events   ports.EventBus
	now      func() time.Time
}

func NewSubmitOrderCommandHandler(
	repo ports.OrderRepository,
	sessions ports.SessionRepository,
	events ports.EventBus,
) *SubmitOrderCommandHandler {
	return &SubmitOrderCommandHandler{
		repo:     repo,
		sessions: sessions,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (h *SubmitOrderCommandHandler) Handle(ctx context.Context, cmd SubmitOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	session, err := h.sessions.GetByID(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasActiveOrder() {
		return nil, domain.ErrNoActiveOrder
	}

	order, err := h.repo.GetByID(ctx, *session.CurrentOrderID)
	if err != nil {
		return nil, err
	}
	if !order.CanSubmit() {
		return nil, fmt.Errorf("cannot submit order in status %s: %w", order.Status, domain.ErrInvalidTransition)
	}

	submittedAt := h.now()
	if err := h.repo.MarkSubmitted(ctx, order.ID, submittedAt); err != nil {
		return nil, err
	}
	order.Status = domain.StatusSubmitted
	order.SubmittedAt = &submittedAt
	order.UpdatedAt = submittedAt

	if session.ClearOnSubmit {
		if err := h.sessions.SetCurrentOrder(ctx, session.ID, nil); err != nil {
			return order, fmt.Errorf("order submitted but failed to clear session: %w", err)
		}
	}

	if err := h.events.PublishOrderSubmitted(ctx, order.ID); err != nil {
		return order, fmt.Errorf("order submitted but failed to publish event: %w", err)
	}

	return order, nil
}

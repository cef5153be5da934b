package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
	"github.com/google/uuid"
)

type CreateOrderCommand struct {
	SessionID    string
	CustomerName string
	AmountCents  int64
	ExternalID   string
}

func (c CreateOrderCommand) Validate() error {
	if strings.TrimSpace(c.SessionID) == "" {
		return domain.ValidationError("session_id is required")
	}
	if strings.TrimSpace(c.CustomerName) == "" {
		return domain.ValidationError("customer_name is required")
	}
	if c.AmountCents <= 0 {
		return domain.ValidationError("amount_cents must be positive")
	}
	return nil
}

type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

// CreateOrderCommandHandler opens a draft order on a session and selects it
// as the session's current order.
//
// Orders imported from the ordering platform are deduplicated on ExternalID:
// a repeat returns the stored order together with domain.ErrOrderExists and
// leaves the session untouched.
type CreateOrderCommandHandler struct {
	repo     ports.OrderRepository
	sessions ports.SessionRepository
}

func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	sessions ports.SessionRepository,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		repo:     repo,
		sessions: sessions,
	}
}

func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.sessions.GetByID(ctx, cmd.SessionID); err != nil {
		return nil, err
	}

	externalID := strings.TrimSpace(cmd.ExternalID)
	if existing, err := h.existing(ctx, externalID); existing != nil || err != nil {
		return existing, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		UUID:         uuid.NewString(),
		SessionID:    cmd.SessionID,
		ExternalID:   externalID,
		CustomerName: cmd.CustomerName,
		AmountCents:  cmd.AmountCents,
		Status:       domain.StatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	id, err := h.repo.Create(ctx, order)
	if errors.Is(err, domain.ErrOrderExists) {
		// Lost a race with a concurrent import of the same platform order.
		if existing, lookupErr := h.existing(ctx, externalID); existing != nil || lookupErr != nil {
			return existing, lookupErr
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	order.ID = id

	if err := h.sessions.SetCurrentOrder(ctx, order.SessionID, &order.ID); err != nil {
		return &order, fmt.Errorf("order saved but failed to select it on session: %w", err)
	}

	return &order, nil
}

// existing returns the order already stored under externalID with
// domain.ErrOrderExists, or nil and no error when there is none.
func (h *CreateOrderCommandHandler) existing(ctx context.Context, externalID string) (*domain.Order, error) {
	if externalID == "" {
		return nil, nil
	}
	order, err := h.repo.GetByExternalID(ctx, externalID)
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return order, fmt.Errorf("external id %s: %w", externalID, domain.ErrOrderExists)
}

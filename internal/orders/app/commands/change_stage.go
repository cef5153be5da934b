package commands

import (
	"context"
	"fmt"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
)

// ChangeOrderStageCommand moves an order to a column of the preparation display.
type ChangeOrderStageCommand struct {
	OrderID int64
	Stage   string
}

type ChangeOrderStageCommandHandler struct {
	repo   ports.OrderRepository
	events ports.EventBus
	syncer *StatusSyncer
}

func NewChangeOrderStageCommandHandler(
	repo ports.OrderRepository,
	events ports.EventBus,
	syncer *StatusSyncer,
) *ChangeOrderStageCommandHandler {
	return &ChangeOrderStageCommandHandler{
		repo:   repo,
		events: events,
		syncer: syncer,
	}
}

func (h *ChangeOrderStageCommandHandler) Handle(ctx context.Context, cmd ChangeOrderStageCommand) (*domain.Order, error) {
	stage, err := domain.ParseStage(cmd.Stage)
	if err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	status, err := order.MoveTo(stage)
	if err != nil {
		return nil, fmt.Errorf("cannot move order in status %s to stage %s: %w", order.Status, stage, err)
	}

	if err := h.repo.UpdateStatus(ctx, order.ID, status); err != nil {
		return nil, err
	}
	order.Status = status

	h.syncer.Sync(ctx, *order, status)

	if err := h.events.PublishOrderStatusChanged(ctx, order.ID, status); err != nil {
		return order, fmt.Errorf("order staged but failed to publish event: %w", err)
	}

	return order, nil
}

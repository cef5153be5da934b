package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
)

const completePageSize = 100

// CompleteOrdersCommand clears a session's finished orders off the
// preparation display by moving every ready order to the last stage.
type CompleteOrdersCommand struct {
	SessionID string
}

type CompleteOrdersCommandHandler struct {
	repo     ports.OrderRepository
	sessions ports.SessionRepository
	stage    *ChangeOrderStageCommandHandler
}

func NewCompleteOrdersCommandHandler(
	repo ports.OrderRepository,
	sessions ports.SessionRepository,
	stage *ChangeOrderStageCommandHandler,
) *CompleteOrdersCommandHandler {
	return &CompleteOrdersCommandHandler{
		repo:     repo,
		sessions: sessions,
		stage:    stage,
	}
}

// Handle returns the orders it completed. Each one is relayed like a manual
// move to the done stage; a failure on one order does not stop the rest.
func (h *CompleteOrdersCommandHandler) Handle(ctx context.Context, cmd CompleteOrdersCommand) ([]domain.Order, error) {
	if strings.TrimSpace(cmd.SessionID) == "" {
		return nil, domain.ValidationError("session_id is required")
	}
	if _, err := h.sessions.GetByID(ctx, cmd.SessionID); err != nil {
		return nil, err
	}

	ready, err := h.readyOrders(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}

	completed := make([]domain.Order, 0, len(ready))
	var errs []error
	for _, id := range ready {
		order, err := h.stage.Handle(ctx, ChangeOrderStageCommand{OrderID: id, Stage: string(domain.StageDone)})
		if order != nil {
			completed = append(completed, *order)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return completed, errors.Join(errs...)
}

func (h *CompleteOrdersCommandHandler) readyOrders(ctx context.Context, sessionID string) ([]int64, error) {
	status := domain.StatusReady
	var ids []int64
	for page := 1; ; page++ {
		orders, err := h.repo.List(ctx, ports.ListFilter{
			Status:    &status,
			SessionID: sessionID,
			Page:      page,
			PageSize:  completePageSize,
		})
		if err != nil {
			return nil, err
		}
		for _, order := range orders {
			ids = append(ids, order.ID)
		}
		if len(orders) < completePageSize {
			return ids, nil
		}
	}
}

package queries

import (
	"context"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
)

const maxPageSize = 100

type ListOrdersQuery struct {
	Filter ports.ListFilter
}

func (q ListOrdersQuery) Validate() error {
	if q.Filter.Page < 0 {
		return domain.ValidationError("page must not be negative")
	}
	if q.Filter.PageSize < 0 || q.Filter.PageSize > maxPageSize {
		return domain.ValidationError("page_size must be between 0 and 100")
	}
	return nil
}

type ListOrdersQueryHandler struct {
	repo ports.OrderRepository
}

func NewListOrdersQueryHandler(repo ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo}
}

func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return h.repo.List(ctx, query.Filter)
}

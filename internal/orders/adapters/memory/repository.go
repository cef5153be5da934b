package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
)

// Repository provides an in-memory order store useful for local development and tests.
type Repository struct {
	mu     sync.RWMutex
	nextID int64
	orders map[int64]domain.Order
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{orders: make(map[int64]domain.Order)}
}

// Create stores a new order and assigns its identifier.
func (r *Repository) Create(_ context.Context, order domain.Order) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ExternalID != "" {
		for _, existing := range r.orders {
			if existing.ExternalID == order.ExternalID {
				return 0, domain.ErrOrderExists
			}
		}
	}
	r.nextID++
	order.ID = r.nextID
	r.orders[order.ID] = order
	return order.ID, nil
}

// GetByID fetches a single order by identifier.
func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	copy := order
	return &copy, nil
}

// GetByExternalID finds the order imported under an ordering platform id.
func (r *Repository) GetByExternalID(_ context.Context, externalID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if externalID == "" {
		return nil, domain.ErrOrderNotFound
	}
	for _, order := range r.orders {
		if order.ExternalID == externalID {
			copy := order
			return &copy, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

// List returns orders respecting the provided filter. Pagination is 1-based.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.SessionID != "" && order.SessionID != filter.SessionID {
			continue
		}
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Order{}, nil
	}

	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}

	slice := make([]domain.Order, end-start)
	copy(slice, result[start:end])

	return slice, nil
}

// UpdateStatus sets the status and updatedAt timestamp for an order.
func (r *Repository) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}

	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	r.orders[id] = order
	return nil
}

// MarkSubmitted moves a draft order to submitted.
func (r *Repository) MarkSubmitted(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if !order.CanSubmit() {
		return domain.ErrInvalidTransition
	}

	order.Status = domain.StatusSubmitted
	order.SubmittedAt = &at
	order.UpdatedAt = at
	r.orders[id] = order
	return nil
}

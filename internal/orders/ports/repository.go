package ports

import (
	"context"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/domain"
)

// OrderRepository exposes persistence operations required by the application layer.
// Create returns domain.ErrOrderExists when a non-empty ExternalID is already stored.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// GetByExternalID finds the order imported under an ordering platform id.
	GetByExternalID(ctx context.Context, externalID string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	MarkSubmitted(ctx context.Context, id int64, at time.Time) error
}

// SessionRepository persists POS terminal sessions and their active order.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	SetCurrentOrder(ctx context.Context, sessionID string, orderID *int64) error
}

// ListFilter narrows list queries by status, session and pagination.
type ListFilter struct {
	Status    *domain.OrderStatus
	SessionID string
	Page      int
	PageSize  int
}

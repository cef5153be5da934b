package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/posrelay/internal/database"
	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
	"github.com/dejobratic/posrelay/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// observeQuery runs fn inside a span named spanName and records its duration
// under operation.
func observeQuery(ctx context.Context, m *database.Metrics, spanName, operation string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("operation", operation))...)

	start := time.Now()
	err := fn(ctx)
	m.RecordQuery(ctx, operation, time.Since(start).Seconds(), err)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Create(ctx context.Context, order domain.Order) (int64, error) {
	var id int64
	err := observeQuery(ctx, r.metrics, "OrderRepository.Create", "create_order",
		[]attribute.KeyValue{attribute.String("session.id", order.SessionID)},
		func(ctx context.Context) error {
			var err error
			id, err = r.repo.Create(ctx, order)
			return err
		})
	return id, err
}

func (r *ObservableRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order *domain.Order
	err := observeQuery(ctx, r.metrics, "OrderRepository.GetByID", "get_order_by_id",
		[]attribute.KeyValue{attribute.Int64("order.id", id)},
		func(ctx context.Context) error {
			var err error
			order, err = r.repo.GetByID(ctx, id)
			return err
		})
	return order, err
}

func (r *ObservableRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Order, error) {
	var order *domain.Order
	err := observeQuery(ctx, r.metrics, "OrderRepository.GetByExternalID", "get_order_by_external_id",
		[]attribute.KeyValue{attribute.String("order.external_id", externalID)},
		func(ctx context.Context) error {
			var err error
			order, err = r.repo.GetByExternalID(ctx, externalID)
			return err
		})
	return order, err
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	attrs := []attribute.KeyValue{
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}
	if filter.SessionID != "" {
		attrs = append(attrs, attribute.String("filter.session_id", filter.SessionID))
	}

	var orders []domain.Order
	err := observeQuery(ctx, r.metrics, "OrderRepository.List", "list_orders", attrs,
		func(ctx context.Context) error {
			var err error
			orders, err = r.repo.List(ctx, filter)
			return err
		})
	return orders, err
}

func (r *ObservableRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	return observeQuery(ctx, r.metrics, "OrderRepository.UpdateStatus", "update_order_status",
		[]attribute.KeyValue{
			attribute.Int64("order.id", id),
			attribute.String("order.new_status", string(status)),
		},
		func(ctx context.Context) error {
			return r.repo.UpdateStatus(ctx, id, status)
		})
}

func (r *ObservableRepository) MarkSubmitted(ctx context.Context, id int64, at time.Time) error {
	return observeQuery(ctx, r.metrics, "OrderRepository.MarkSubmitted", "mark_order_submitted",
		[]attribute.KeyValue{attribute.Int64("order.id", id)},
		func(ctx context.Context) error {
			return r.repo.MarkSubmitted(ctx, id, at)
		})
}

type ObservableSessionRepository struct {
	repo    ports.SessionRepository
	metrics *database.Metrics
}

func NewObservableSessionRepository(repo ports.SessionRepository, metrics *database.Metrics) *ObservableSessionRepository {
	return &ObservableSessionRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableSessionRepository) Create(ctx context.Context, session domain.Session) error {
	return observeQuery(ctx, r.metrics, "SessionRepository.Create", "create_session",
		[]attribute.KeyValue{attribute.String("session.id", session.ID)},
		func(ctx context.Context) error {
			return r.repo.Create(ctx, session)
		})
}

func (r *ObservableSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var session *domain.Session
	err := observeQuery(ctx, r.metrics, "SessionRepository.GetByID", "get_session_by_id",
		[]attribute.KeyValue{attribute.String("session.id", id)},
		func(ctx context.Context) error {
			var err error
			session, err = r.repo.GetByID(ctx, id)
			return err
		})
	return session, err
}

func (r *ObservableSessionRepository) SetCurrentOrder(ctx context.Context, sessionID string, orderID *int64) error {
	attrs := []attribute.KeyValue{attribute.String("session.id", sessionID)}
	if orderID != nil {
		attrs = append(attrs, attribute.Int64("order.id", *orderID))
	}
	return observeQuery(ctx, r.metrics, "SessionRepository.SetCurrentOrder", "set_current_order", attrs,
		func(ctx context.Context) error {
			return r.repo.SetCurrentOrder(ctx, sessionID, orderID)
		})
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const externalIDIndex = "orders_external_id_key"

const orderColumns = `id, uuid::text, session_id, external_id, customer_name, amount_cents,
	status, submitted_at, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.UUID,
		&order.SessionID,
		&order.ExternalID,
		&order.CustomerName,
		&order.AmountCents,
		&order.Status,
		&order.SubmittedAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	return order, err
}

func (r *Repository) Create(ctx context.Context, order domain.Order) (int64, error) {
	query := `
		INSERT INTO orders (uuid, session_id, external_id, customer_name, amount_cents, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		order.UUID,
		order.SessionID,
		order.ExternalID,
		order.CustomerName,
		order.AmountCents,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == externalIDIndex {
			return 0, domain.ErrOrderExists
		}
		return 0, fmt.Errorf("insert order: %w", err)
	}

	return id, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	return &order, nil
}

func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (*domain.Order, error) {
	if externalID == "" {
		return nil, domain.ErrOrderNotFound
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE external_id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("select order by external id: %w", err)
	}

	return &order, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text = '' OR session_id = $2)
		ORDER BY id DESC
		LIMIT $3 OFFSET $4
	`

	var statusFilter *string
	if filter.Status != nil {
		s := string(*filter.Status)
		statusFilter = &s
	}

	rows, err := r.pool.Query(ctx, query, statusFilter, filter.SessionID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		return scanOrder(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}

	return orders, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}

	return nil
}

// MarkSubmitted moves a draft order to submitted in one statement, so two
// terminals racing on the same order cannot both submit it.
func (r *Repository) MarkSubmitted(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE orders
		SET status = $1, submitted_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.pool.Exec(ctx, query, domain.StatusSubmitted, at, id, domain.StatusDraft)
	if err != nil {
		return fmt.Errorf("mark order submitted: %w", err)
	}

	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidTransition
	}

	return nil
}

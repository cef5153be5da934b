package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	query := `
		INSERT INTO sessions (id, name, clear_on_submit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.Name,
		session.ClearOnSubmit,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrSessionExists
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `
		SELECT id, name, current_order_id, clear_on_submit, created_at, updated_at
		FROM sessions
		WHERE id = $1
	`

	var session domain.Session
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.Name,
		&session.CurrentOrderID,
		&session.ClearOnSubmit,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}

	return &session, nil
}

func (r *SessionRepository) SetCurrentOrder(ctx context.Context, sessionID string, orderID *int64) error {
	query := `
		UPDATE sessions
		SET current_order_id = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, orderID, time.Now().UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("set current order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

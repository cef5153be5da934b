package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dejobratic/posrelay/internal/orders/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps replayable responses in the idempotency_keys table. The first
// response saved for a key is the one replayed.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type storedRow struct {
	StatusCode int    `db:"status_code"`
	Body       []byte `db:"body"`
	OrderID    int64  `db:"order_id"`
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status_code, body, order_id
		FROM idempotency_keys
		WHERE key = $1
	`, key)
	if err != nil {
		return nil, fmt.Errorf("select idempotency key: %w", err)
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[storedRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan idempotency key: %w", err)
	}

	return &ports.StoredResponse{
		StatusCode: row.StatusCode,
		Body:       row.Body,
		OrderID:    row.OrderID,
	}, nil
}

func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (key, status_code, body, order_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO NOTHING
	`, key, response.StatusCode, response.Body, response.OrderID)
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}

	return nil
}

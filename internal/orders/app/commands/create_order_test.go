package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dejobratic/posrelay/internal/orders/adapters/memory"
	"github.com/dejobratic/posrelay/internal/orders/app/commands"
	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
)

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*memory.Repository, *memory.SessionRepository, *commands.CreateOrderCommandHandler) {
		t.Helper()
		repo := memory.NewRepository()
		sessions := memory.NewSessionRepository()
		if err := sessions.Create(ctx, domain.Session{ID: "till-1", Name: "Front"}); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		return repo, sessions, commands.NewCreateOrderCommandHandler(repo, sessions)
	}

	t.Run("creates draft order with valid input", func(t *testing.T) {
		repo, _, handler := setup(t)

		cmd := commands.CreateOrderCommand{
			SessionID:    "till-1",
			CustomerName: "Ana",
			AmountCents:  1000,
			ExternalID:   " ot-991 ",
		}

		order, err := handler.Handle(ctx, cmd)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if order == nil {
			t.Fatal("expected order to be returned, got nil")
		}

		if order.ID == 0 {
			t.Error("expected order ID to be assigned")
		}
		if order.UUID == "" {
			t.Error("expected order UUID to be generated")
		}
		if order.Status != domain.StatusDraft {
			t.Errorf("expected status %s, got %s", domain.StatusDraft, order.Status)
		}
		if order.ExternalID != "ot-991" {
			t.Errorf("expected trimmed external ID, got %q", order.ExternalID)
		}

		stored, err := repo.GetByID(ctx, order.ID)
		if err != nil {
			t.Fatalf("expected order to be stored, got: %v", err)
		}
		if stored.AmountCents != cmd.AmountCents {
			t.Errorf("expected amount %d, got %d", cmd.AmountCents, stored.AmountCents)
		}
	})

	t.Run("selects new order as session current order", func(t *testing.T) {
		_, sessions, handler := setup(t)

		order, err := handler.Handle(ctx, commands.CreateOrderCommand{
			SessionID:    "till-1",
			CustomerName: "Ana",
			AmountCents:  250,
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		session, _ := sessions.GetByID(ctx, "till-1")
		if !session.HasActiveOrder() || *session.CurrentOrderID != order.ID {
			t.Errorf("expected session current order %d, got %v", order.ID, session.CurrentOrderID)
		}
	})

	t.Run("rejects unknown session", func(t *testing.T) {
		_, _, handler := setup(t)

		order, err := handler.Handle(ctx, commands.CreateOrderCommand{
			SessionID:    "till-9",
			CustomerName: "Ana",
			AmountCents:  250,
		})

		if !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
		if order != nil {
			t.Errorf("expected nil order, got %+v", order)
		}
	})

	t.Run("returns the stored order for a repeated external ID", func(t *testing.T) {
		repo, sessions, handler := setup(t)

		first, err := handler.Handle(ctx, commands.CreateOrderCommand{
			SessionID: "till-1", CustomerName: "Ana", AmountCents: 250, ExternalID: "ot-5",
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		other, err := handler.Handle(ctx, commands.CreateOrderCommand{
			SessionID: "till-1", CustomerName: "Ben", AmountCents: 300,
		})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		again, err := handler.Handle(ctx, commands.CreateOrderCommand{
			SessionID: "till-1", CustomerName: "Ana", AmountCents: 250, ExternalID: " ot-5",
		})
		if !errors.Is(err, domain.ErrOrderExists) {
			t.Fatalf("expected ErrOrderExists, got %v", err)
		}
		if again == nil || again.ID != first.ID {
			t.Fatalf("expected existing order %d, got %+v", first.ID, again)
		}

		orders, _ := repo.List(ctx, ports.ListFilter{})
		if len(orders) != 2 {
			t.Errorf("expected 2 stored orders, got %d", len(orders))
		}
		session, _ := sessions.GetByID(ctx, "till-1")
		if *session.CurrentOrderID != other.ID {
			t.Errorf("expected session to keep order %d selected, got %d", other.ID, *session.CurrentOrderID)
		}
	})

	t.Run("returns the winner when a concurrent import stored it first", func(t *testing.T) {
		repo := &racingRepository{Repository: memory.NewRepository()}
		sessions := memory.NewSessionRepository()
		if err := sessions.Create(ctx, domain.Session{ID: "till-1", Name: "Front"}); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		winner, err := repo.Create(ctx, domain.Order{
			SessionID: "till-1", ExternalID: "ot-6", CustomerName: "Ana", AmountCents: 100, Status: domain.StatusDraft,
		})
		if err != nil {
			t.Fatalf("failed to seed order: %v", err)
		}
		handler := commands.NewCreateOrderCommandHandler(repo, sessions)

		order, err := handler.Handle(ctx, commands.CreateOrderCommand{
			SessionID: "till-1", CustomerName: "Ana", AmountCents: 100, ExternalID: "ot-6",
		})
		if !errors.Is(err, domain.ErrOrderExists) {
			t.Fatalf("expected ErrOrderExists, got %v", err)
		}
		if order == nil || order.ID != winner {
			t.Fatalf("expected winning order %d, got %+v", winner, order)
		}
	})

	t.Run("rejects invalid input before touching storage", func(t *testing.T) {
		repo, _, handler := setup(t)

		_, err := handler.Handle(ctx, commands.CreateOrderCommand{
			SessionID:    "till-1",
			CustomerName: "Ana",
			AmountCents:  0,
		})
		if err == nil {
			t.Fatal("expected validation error, got nil")
		}

		orders, _ := repo.List(ctx, ports.ListFilter{})
		if len(orders) != 0 {
			t.Errorf("expected no stored orders, got %d", len(orders))
		}
	})
}

func TestCreateOrderCommandValidation(t *testing.T) {
	tests := []struct {
		name    string
		cmd     commands.CreateOrderCommand
		wantErr string
	}{
		{
			name: "valid command",
			cmd:  commands.CreateOrderCommand{SessionID: "till-1", CustomerName: "Ana", AmountCents: 100},
		},
		{
			name:    "missing session",
			cmd:     commands.CreateOrderCommand{CustomerName: "Ana", AmountCents: 100},
			wantErr: "session_id is required",
		},
		{
			name:    "blank customer name",
			cmd:     commands.CreateOrderCommand{SessionID: "till-1", CustomerName: "  ", AmountCents: 100},
			wantErr: "customer_name is required",
		},
		{
			name:    "negative amount",
			cmd:     commands.CreateOrderCommand{SessionID: "till-1", CustomerName: "Ana", AmountCents: -5},
			wantErr: "amount_cents must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("expected error %q, got %v", tt.wantErr, err)
			}
		})
	}
}

// racingRepository misses the first external ID lookup, as if a concurrent
// import stored the order between the lookup and the insert.
type racingRepository struct {
	*memory.Repository
	lookups int
}

func (r *racingRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Order, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, domain.ErrOrderNotFound
	}
	return r.Repository.GetByExternalID(ctx, externalID)
}

package commands_test

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/adapters/memory"
	"github.com/dejobratic/posrelay/internal/orders/app/commands"
	"github.com/dejobratic/posrelay/internal/orders/domain"
)

func TestCompleteOrders(t *testing.T) {
	ctx := context.Background()

	type fixture struct {
		repo    *memory.Repository
		events  *mockEventBus
		relay   *mockRelay
		handler *commands.CompleteOrdersCommandHandler
	}

	setup := func(t *testing.T) *fixture {
		t.Helper()
		f := &fixture{
			repo:   memory.NewRepository(),
			events: &mockEventBus{},
			relay:  &mockRelay{},
		}
		sessions := memory.NewSessionRepository()
		for _, id := range []string{"till-1", "till-2"} {
			if err := sessions.Create(ctx, domain.Session{ID: id, Name: id}); err != nil {
				t.Fatalf("failed to create session: %v", err)
			}
		}
		var logs bytes.Buffer
		syncer := commands.NewStatusSyncer(f.relay, newTestLogger(&logs), newTestMetrics(t))
		stage := commands.NewChangeOrderStageCommandHandler(f.repo, f.events, syncer)
		f.handler = commands.NewCompleteOrdersCommandHandler(f.repo, sessions, stage)
		return f
	}

	seed := func(t *testing.T, f *fixture, session, externalID string, status domain.OrderStatus) int64 {
		t.Helper()
		now := time.Now().UTC()
		id, err := f.repo.Create(ctx, domain.Order{
			SessionID:    session,
			ExternalID:   externalID,
			CustomerName: "Ana",
			AmountCents:  500,
			Status:       status,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			t.Fatalf("failed to seed order: %v", err)
		}
		return id
	}

	t.Run("moves every ready order of the session to done", func(t *testing.T) {
		f := setup(t)
		first := seed(t, f, "till-1", "ot-1", domain.StatusReady)
		second := seed(t, f, "till-1", "", domain.StatusReady)
		preparing := seed(t, f, "till-1", "ot-3", domain.StatusPreparing)
		otherTill := seed(t, f, "till-2", "ot-4", domain.StatusReady)

		completed, err := f.handler.Handle(ctx, commands.CompleteOrdersCommand{SessionID: "till-1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var ids []int64
		for _, order := range completed {
			ids = append(ids, order.ID)
			if order.Status != domain.StatusDone {
				t.Errorf("expected order %d done, got %s", order.ID, order.Status)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		if len(ids) != 2 || ids[0] != first || ids[1] != second {
			t.Fatalf("expected orders %d and %d completed, got %v", first, second, ids)
		}

		for id, want := range map[int64]domain.OrderStatus{preparing: domain.StatusPreparing, otherTill: domain.StatusReady} {
			stored, _ := f.repo.GetByID(ctx, id)
			if stored.Status != want {
				t.Errorf("expected order %d to stay %s, got %s", id, want, stored.Status)
			}
		}

		if len(f.relay.relays) != 1 || f.relay.relays[0] != "ot-1:done" {
			t.Errorf("expected only the platform order relayed as done, got %v", f.relay.relays)
		}
		if len(f.events.changed) != 2 {
			t.Errorf("expected 2 status change events, got %v", f.events.changed)
		}
	})

	t.Run("completes nothing when no order is ready", func(t *testing.T) {
		f := setup(t)
		seed(t, f, "till-1", "ot-1", domain.StatusPreparing)

		completed, err := f.handler.Handle(ctx, commands.CompleteOrdersCommand{SessionID: "till-1"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(completed) != 0 || len(f.relay.relays) != 0 {
			t.Errorf("expected no completions, got %v and relays %v", completed, f.relay.relays)
		}
	})

	t.Run("keeps going when publishing fails", func(t *testing.T) {
		f := setup(t)
		f.events.err = errors.New("bus down")
		seed(t, f, "till-1", "ot-1", domain.StatusReady)
		seed(t, f, "till-1", "ot-2", domain.StatusReady)

		completed, err := f.handler.Handle(ctx, commands.CompleteOrdersCommand{SessionID: "till-1"})
		if err == nil {
			t.Fatal("expected publish failures to be reported")
		}
		if len(completed) != 2 {
			t.Errorf("expected both orders completed, got %d", len(completed))
		}
	})

	t.Run("rejects unknown session", func(t *testing.T) {
		f := setup(t)

		_, err := f.handler.Handle(ctx, commands.CompleteOrdersCommand{SessionID: "till-9"})
		if !errors.Is(err, domain.ErrSessionNotFound) {
			t.Errorf("expected ErrSessionNotFound, got %v", err)
		}
	})
}

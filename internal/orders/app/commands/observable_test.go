package commands_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dejobratic/posrelay/internal/orders/app/commands"
	"github.com/dejobratic/posrelay/internal/orders/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type fixedCreateHandler struct {
	order *domain.Order
	err   error
}

func (s fixedCreateHandler) Handle(context.Context, commands.CreateOrderCommand) (*domain.Order, error) {
	return s.order, s.err
}

type fixedSubmitHandler struct {
	order *domain.Order
	err   error
}

func (s fixedSubmitHandler) Handle(context.Context, commands.SubmitOrderCommand) (*domain.Order, error) {
	return s.order, s.err
}

func setupTracing(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestObservableCreateOrderHandler(t *testing.T) {
	ctx := context.Background()
	cmd := commands.CreateOrderCommand{SessionID: "till-1", CustomerName: "Ana", AmountCents: 100, ExternalID: "ot-1"}
	existing := &domain.Order{ID: 7, ExternalID: "ot-1", Status: domain.StatusDraft}

	t.Run("logs a duplicate platform order as info on a successful span", func(t *testing.T) {
		exporter := setupTracing(t)
		var buf bytes.Buffer
		dup := fmt.Errorf("external id ot-1: %w", domain.ErrOrderExists)
		handler := commands.NewObservableCreateOrderHandler(fixedCreateHandler{order: existing, err: dup}, newTestLogger(&buf), newTestMetrics(t))

		order, err := handler.Handle(ctx, cmd)
		if !errors.Is(err, domain.ErrOrderExists) || order != existing {
			t.Fatalf("expected the existing order with ErrOrderExists, got %v, %v", order, err)
		}

		spans := exporter.GetSpans()
		if len(spans) != 1 {
			t.Fatalf("expected 1 span, got %d", len(spans))
		}
		if spans[0].Status.Code != codes.Ok {
			t.Errorf("expected ok span status, got %v", spans[0].Status.Code)
		}
		if len(spans[0].Events) != 1 || spans[0].Events[0].Name != "order already exists" {
			t.Errorf("expected an order already exists event, got %v", spans[0].Events)
		}

		entries := logEntries(t, &buf)
		if len(entries) != 1 || entries[0]["level"] != "INFO" || entries[0]["msg"] != "order already exists" {
			t.Fatalf("expected one info entry, got %v", entries)
		}
		if entries[0]["order_id"] != float64(7) {
			t.Errorf("expected order_id 7, got %v", entries[0]["order_id"])
		}
	})

	t.Run("records failures on the span and logs an error", func(t *testing.T) {
		exporter := setupTracing(t)
		var buf bytes.Buffer
		handler := commands.NewObservableCreateOrderHandler(fixedCreateHandler{err: domain.ErrSessionNotFound}, newTestLogger(&buf), newTestMetrics(t))

		if _, err := handler.Handle(ctx, cmd); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound, got %v", err)
		}

		spans := exporter.GetSpans()
		if len(spans) != 1 || spans[0].Status.Code != codes.Error {
			t.Fatalf("expected one failed span, got %v", spans)
		}
		entries := logEntries(t, &buf)
		if len(entries) != 1 || entries[0]["level"] != "ERROR" {
			t.Fatalf("expected one error entry, got %v", entries)
		}
	})
}

func TestObservableSubmitOrderHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("logs the submitted order inside the span", func(t *testing.T) {
		exporter := setupTracing(t)
		var buf bytes.Buffer
		submitted := &domain.Order{ID: 3, Status: domain.StatusSubmitted}
		handler := commands.NewObservableSubmitOrderHandler(fixedSubmitHandler{order: submitted}, newTestLogger(&buf), newTestMetrics(t))

		if _, err := handler.Handle(ctx, commands.SubmitOrderCommand{SessionID: "till-1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		spans := exporter.GetSpans()
		if len(spans) != 1 || spans[0].Name != "SubmitOrderCommand.Handle" || spans[0].Status.Code != codes.Ok {
			t.Fatalf("unexpected spans %v", spans)
		}
		var hasOrderID bool
		for _, attr := range spans[0].Attributes {
			if string(attr.Key) == "order.id" && attr.Value.AsInt64() == 3 {
				hasOrderID = true
			}
		}
		if !hasOrderID {
			t.Errorf("expected order.id attribute on span, got %v", spans[0].Attributes)
		}

		entries := logEntries(t, &buf)
		if len(entries) != 1 || entries[0]["msg"] != "order submitted" {
			t.Fatalf("expected one submitted entry, got %v", entries)
		}
	})

	t.Run("records failures on the span and logs an error", func(t *testing.T) {
		exporter := setupTracing(t)
		var buf bytes.Buffer
		handler := commands.NewObservableSubmitOrderHandler(fixedSubmitHandler{err: domain.ErrNoActiveOrder}, newTestLogger(&buf), newTestMetrics(t))

		if _, err := handler.Handle(ctx, commands.SubmitOrderCommand{SessionID: "till-1"}); !errors.Is(err, domain.ErrNoActiveOrder) {
			t.Fatalf("expected ErrNoActiveOrder, got %v", err)
		}
		if spans := exporter.GetSpans(); len(spans) != 1 || spans[0].Status.Code != codes.Error {
			t.Fatalf("expected one failed span, got %v", spans)
		}
		if entries := logEntries(t, &buf); len(entries) != 1 || entries[0]["level"] != "ERROR" {
			t.Fatalf("expected one error entry, got %v", entries)
		}
	})
}

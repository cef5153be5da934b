package commands_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/dejobratic/posrelay/internal/orders/app/commands"
	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/metrics"
	"go.opentelemetry.io/otel/metric/noop"
)

type mockEventBus struct {
	mu        sync.Mutex
	submitted []int64
	changed   []domain.OrderStatus
	err       error
}

func (m *mockEventBus) PublishOrderSubmitted(_ context.Context, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, orderID)
	return m.err
}

func (m *mockEventBus) PublishOrderStatusChanged(_ context.Context, _ int64, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = append(m.changed, status)
	return m.err
}

type recordedCall struct {
	path   string
	body   string
	ctxErr error
}

// recordingCaller captures every remote call with its JSON-encoded payload.
type recordingCaller struct {
	mu      sync.Mutex
	calls   []recordedCall
	err     error
	release chan struct{}
}

func (c *recordingCaller) Call(ctx context.Context, path string, payload any) error {
	if c.release != nil {
		<-c.release
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, recordedCall{path: path, body: string(body), ctxErr: ctx.Err()})
	return c.err
}

func (c *recordingCaller) Calls() []recordedCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]recordedCall(nil), c.calls...)
}

type mockRelay struct {
	mu     sync.Mutex
	relays []string
	err    error
}

func (r *mockRelay) RelayStatus(_ context.Context, externalID string, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.relays = append(r.relays, externalID+":"+string(status))
	return r.err
}

func newTestMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	m, err := metrics.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m
}

// newTestLogger returns a JSON logger writing into buf.
func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("failed to parse log line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

var _ commands.SubmitOrderHandler = (*commands.SubmitOrderCommandHandler)(nil)

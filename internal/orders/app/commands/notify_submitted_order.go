package commands

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/metrics"
	"github.com/dejobratic/posrelay/internal/orders/ports"
	"github.com/dejobratic/posrelay/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

const notifierComponent = "order_webhook_notifier"

// NotifyingSubmitOrderHandler runs the wrapped submission and then, without
// holding up the caller, tells the order webhook which order was submitted.
//
// The active order is looked up before Handle returns; only the webhook call
// runs in the background. The notification is best-effort: a missing active
// order ends it quietly, and a failed call is logged once and dropped.
// Nothing it does can change what the wrapped handler returned.
type NotifyingSubmitOrderHandler struct {
	next    SubmitOrderHandler
	current ports.CurrentOrderProvider
	caller  ports.RemoteCaller
	logger  *slog.Logger
	metrics *metrics.Metrics

	inflight sync.WaitGroup
}

func NewNotifyingSubmitOrderHandler(
	next SubmitOrderHandler,
	current ports.CurrentOrderProvider,
	caller ports.RemoteCaller,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *NotifyingSubmitOrderHandler {
	return &NotifyingSubmitOrderHandler{
		next:    next,
		current: current,
		caller:  caller,
		logger:  logger.With("component", notifierComponent),
		metrics: metrics,
	}
}

func (h *NotifyingSubmitOrderHandler) Handle(ctx context.Context, cmd SubmitOrderCommand) (*domain.Order, error) {
	order, err := h.next.Handle(ctx, cmd)
	if err != nil {
		return order, err
	}

	notifyCtx := context.WithoutCancel(ctx)
	start := time.Now()

	// The order is resolved before returning: once the caller continues, the
	// session may already hold a different order.
	ref, ok := h.resolve(notifyCtx, cmd.SessionID, start)
	if !ok {
		return order, nil
	}

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		h.notify(notifyCtx, ref, start)
	}()

	return order, nil
}

// Wait blocks until every notification started so far has finished.
func (h *NotifyingSubmitOrderHandler) Wait() {
	h.inflight.Wait()
}

// WaitContext is Wait bounded by ctx. Notifications still running when ctx
// is done are abandoned and ctx.Err() is returned.
func (h *NotifyingSubmitOrderHandler) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *NotifyingSubmitOrderHandler) resolve(ctx context.Context, sessionID string, start time.Time) (domain.Ref, bool) {
	handle, ok, err := h.current.CurrentOrder(ctx, sessionID)
	switch {
	case err != nil:
		h.metrics.RecordWebhookNotification(ctx, metrics.OutcomeFailed, time.Since(start).Seconds())
		h.logger.ErrorContext(ctx, "order webhook notification failed",
			"session_id", sessionID,
			"failure", "lookup",
			"error", err,
		)
		return domain.Ref{}, false
	case !ok:
		h.metrics.RecordWebhookNotification(ctx, metrics.OutcomeSkipped, time.Since(start).Seconds())
		return domain.Ref{}, false
	}
	return handle.Ref(), true
}

func (h *NotifyingSubmitOrderHandler) notify(ctx context.Context, ref domain.Ref, start time.Time) {
	ctx, span := telemetry.StartSpan(ctx, "OrderWebhook.Notify")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("order.ref", ref.String()))

	err := h.caller.Call(ctx, ports.OrderWebhookPath, ports.OrderWebhookPayload{OrderID: ref})
	if err != nil {
		h.metrics.RecordWebhookNotification(ctx, metrics.OutcomeFailed, time.Since(start).Seconds())
		telemetry.RecordSpanError(span, err)
		h.logger.ErrorContext(ctx, "order webhook notification failed",
			"order_id", ref.String(),
			"failure", classifyFailure(err),
			"error", err,
		)
		return
	}

	h.metrics.RecordWebhookNotification(ctx, metrics.OutcomeSent, time.Since(start).Seconds())
	telemetry.SetSpanSuccess(span)
}

// classifyFailure labels a remote-call error for diagnostics. Callers that
// know more about their failures expose it through FailureKind.
func classifyFailure(err error) string {
	var kinded interface{ FailureKind() string }
	switch {
	case errors.As(err, &kinded):
		return kinded.FailureKind()
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "unknown"
	}
}

package app

import (
	"context"
	"log/slog"

	"github.com/dejobratic/posrelay/internal/orders/app/commands"
	"github.com/dejobratic/posrelay/internal/orders/app/queries"
	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/metrics"
	"github.com/dejobratic/posrelay/internal/orders/ports"
)

// Dependencies are the adapters the Service is built from.
type Dependencies struct {
	Orders      ports.OrderRepository
	Sessions    ports.SessionRepository
	Events      ports.EventBus
	Idempotency ports.IdempotencyStore
	Webhook     ports.RemoteCaller
	Relay       ports.StatusRelay
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Service bundles use cases for handling orders via the API.
type Service struct {
	sessions  ports.SessionRepository
	idemStore ports.IdempotencyStore

	createOrderHandler  commands.CreateOrderHandler
	submitOrderHandler  commands.SubmitOrderHandler
	notifier            *commands.NotifyingSubmitOrderHandler
	cancelOrderHandler  *commands.CancelOrderCommandHandler
	changeStageHandler  *commands.ChangeOrderStageCommandHandler
	completeHandler     *commands.CompleteOrdersCommandHandler
	orderWebhookHandler *commands.HandleOrderWebhookCommandHandler
	openSessionHandler  *commands.OpenSessionCommandHandler
	getOrderHandler     *queries.GetOrderQueryHandler
	listOrdersHandler   *queries.ListOrdersQueryHandler
	currentOrderHandler *queries.CurrentOrderQueryHandler
}

// NewService wires required dependencies.
func NewService(deps Dependencies) *Service {
	current := queries.NewCurrentOrderQueryHandler(deps.Orders, deps.Sessions)
	syncer := commands.NewStatusSyncer(deps.Relay, deps.Logger, deps.Metrics)

	createHandler := commands.NewObservableCreateOrderHandler(
		commands.NewCreateOrderCommandHandler(deps.Orders, deps.Sessions),
		deps.Logger,
		deps.Metrics,
	)

	changeStage := commands.NewChangeOrderStageCommandHandler(deps.Orders, deps.Events, syncer)

	notifier := commands.NewNotifyingSubmitOrderHandler(
		commands.NewSubmitOrderCommandHandler(deps.Orders, deps.Sessions, deps.Events),
		current,
		deps.Webhook,
		deps.Logger,
		deps.Metrics,
	)

	return &Service{
		sessions:            deps.Sessions,
		idemStore:           deps.Idempotency,
		createOrderHandler:  createHandler,
		submitOrderHandler:  commands.NewObservableSubmitOrderHandler(notifier, deps.Logger, deps.Metrics),
		notifier:            notifier,
		cancelOrderHandler:  commands.NewCancelOrderCommandHandler(deps.Orders, deps.Sessions, deps.Events),
		changeStageHandler:  changeStage,
		completeHandler:     commands.NewCompleteOrdersCommandHandler(deps.Orders, deps.Sessions, changeStage),
		orderWebhookHandler: commands.NewHandleOrderWebhookCommandHandler(deps.Orders, syncer),
		openSessionHandler:  commands.NewOpenSessionCommandHandler(deps.Sessions),
		getOrderHandler:     queries.NewGetOrderQueryHandler(deps.Orders),
		listOrdersHandler:   queries.NewListOrdersQueryHandler(deps.Orders),
		currentOrderHandler: current,
	}
}

// CreateOrderInput captures payload for creating an order.
type CreateOrderInput struct {
	SessionID    string `json:"session_id"`
	CustomerName string `json:"customer_name"`
	AmountCents  int64  `json:"amount_cents"`
	ExternalID   string `json:"external_id"`
}

// CreateOrder opens a draft order and selects it on its session.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	cmd := commands.CreateOrderCommand{
		SessionID:    input.SessionID,
		CustomerName: input.CustomerName,
		AmountCents:  input.AmountCents,
		ExternalID:   input.ExternalID,
	}
	return s.createOrderHandler.Handle(ctx, cmd)
}

// SubmitOrder submits the session's active order. The order webhook is
// notified in the background once submission succeeds.
func (s *Service) SubmitOrder(ctx context.Context, sessionID string) (*domain.Order, error) {
	return s.submitOrderHandler.Handle(ctx, commands.SubmitOrderCommand{SessionID: sessionID})
}

// WaitForNotifications blocks until background webhook notifications finish.
func (s *Service) WaitForNotifications() {
	s.notifier.Wait()
}

// DrainNotifications waits for background webhook notifications until ctx is
// done. It returns ctx.Err() if some were still running.
func (s *Service) DrainNotifications(ctx context.Context) error {
	return s.notifier.WaitContext(ctx)
}

// CurrentOrder returns the order active on a session.
func (s *Service) CurrentOrder(ctx context.Context, sessionID string) (*domain.Order, error) {
	return s.currentOrderHandler.Handle(ctx, queries.CurrentOrderQuery{SessionID: sessionID})
}

// GetOrder retrieves an order by ID.
func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.getOrderHandler.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

// ListOrders returns orders using a filter.
func (s *Service) ListOrders(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	return s.listOrdersHandler.Handle(ctx, queries.ListOrdersQuery{Filter: filter})
}

// CancelOrder cancels an order that has not finished.
func (s *Service) CancelOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.cancelOrderHandler.Handle(ctx, commands.CancelOrderCommand{OrderID: id})
}

// ChangeOrderStage moves an order on the preparation display.
func (s *Service) ChangeOrderStage(ctx context.Context, id int64, stage string) (*domain.Order, error) {
	return s.changeStageHandler.Handle(ctx, commands.ChangeOrderStageCommand{OrderID: id, Stage: stage})
}

// CompleteOrders moves every ready order of a session to the done stage.
func (s *Service) CompleteOrders(ctx context.Context, sessionID string) ([]domain.Order, error) {
	return s.completeHandler.Handle(ctx, commands.CompleteOrdersCommand{SessionID: sessionID})
}

// HandleOrderWebhook processes a submitted-order notification.
func (s *Service) HandleOrderWebhook(ctx context.Context, payload ports.OrderWebhookPayload) (commands.OrderWebhookResult, error) {
	return s.orderWebhookHandler.Handle(ctx, commands.HandleOrderWebhookCommand{OrderRef: payload.OrderID})
}

// OpenSessionInput captures payload for registering a POS terminal.
type OpenSessionInput struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ClearOnSubmit bool   `json:"clear_on_submit"`
}

// OpenSession registers a POS terminal.
func (s *Service) OpenSession(ctx context.Context, input OpenSessionInput) (*domain.Session, error) {
	return s.openSessionHandler.Handle(ctx, commands.OpenSessionCommand{
		ID:            input.ID,
		Name:          input.Name,
		ClearOnSubmit: input.ClearOnSubmit,
	})
}

// GetSession retrieves a POS terminal by ID.
func (s *Service) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	return s.sessions.GetByID(ctx, id)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}

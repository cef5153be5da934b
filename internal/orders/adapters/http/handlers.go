package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dejobratic/posrelay/internal/orders/app"
	"github.com/dejobratic/posrelay/internal/orders/domain"
	"github.com/dejobratic/posrelay/internal/orders/ports"
)

const maxBodyBytes = 1 << 20

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service *app.Service
	apiKey  string
}

// NewHandler constructs a Handler. apiKey guards the order webhook route;
// an empty key leaves it open.
func NewHandler(service *app.Service, apiKey string) *Handler {
	return &Handler{service: service, apiKey: apiKey}
}

// Register binds the order handlers to the provided ServeMux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/orders", h.createOrder)
	mux.HandleFunc("GET /v1/orders", h.listOrders)
	mux.HandleFunc("GET /v1/orders/{id}", h.getOrder)
	mux.HandleFunc("POST /v1/orders/{id}/cancel", h.cancelOrder)
	mux.HandleFunc("POST /v1/orders/{id}/stage", h.changeStage)

	mux.HandleFunc("POST /v1/sessions", h.openSession)
	mux.HandleFunc("GET /v1/sessions/{id}", h.getSession)
	mux.HandleFunc("GET /v1/sessions/{id}/current-order", h.currentOrder)
	mux.HandleFunc("POST /v1/sessions/{id}/submit", h.submitOrder)
	mux.HandleFunc("POST /v1/sessions/{id}/complete", h.completeOrders)

	mux.Handle("POST "+ports.OrderWebhookPath, RequireAPIKey(h.apiKey, http.HandlerFunc(h.orderWebhook)))
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey == "" {
		writeError(w, http.StatusBadRequest, "Idempotency-Key header required")
		return
	}

	if stored, err := h.service.GetIdempotentResponse(ctx, idemKey); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	} else if stored != nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(stored.StatusCode)
		_, _ = w.Write(stored.Body)
		return
	}

	var payload app.CreateOrderInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	status := http.StatusCreated
	order, err := h.service.CreateOrder(ctx, payload)
	switch {
	case errors.Is(err, domain.ErrOrderExists) && order != nil:
		// The platform resent an order it already delivered.
		status = http.StatusOK
	case err != nil:
		writeDomainError(w, err)
		return
	}

	body, err := json.Marshal(map[string]any{"order": order})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored := ports.StoredResponse{
		StatusCode: status,
		Body:       body,
		OrderID:    order.ID,
	}
	if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ports.ListFilter{SessionID: query.Get("session_id")}

	if statusParam := query.Get("status"); statusParam != "" {
		status := domain.OrderStatus(statusParam)
		filter.Status = &status
	}

	var err error
	if filter.Page, err = intParam(query.Get("page")); err != nil {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	if filter.PageSize, err = intParam(query.Get("page_size")); err != nil {
		writeError(w, http.StatusBadRequest, "page_size must be an integer")
		return
	}

	orders, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	order, err := h.service.CancelOrder(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

type changeStageRequest struct {
	Stage string `json:"stage"`
}

func (h *Handler) changeStage(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var payload changeStageRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	order, err := h.service.ChangeOrderStage(r.Context(), id, payload.Stage)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) completeOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.CompleteOrders(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	var payload app.OpenSessionInput
	if !decodeJSON(w, r, &payload) {
		return
	}

	session, err := h.service.OpenSession(r.Context(), payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"session": session})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

func (h *Handler) currentOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.CurrentOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveOrder) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

// submitOrder answers as soon as the order is submitted. The order webhook
// is notified in the background and never changes this response.
func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.SubmitOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

// orderWebhook receives the submitted-order notification. Relay failures are
// reported as relayed=false with status 200; the sender does not act on them.
func (h *Handler) orderWebhook(w http.ResponseWriter, r *http.Request) {
	var payload ports.OrderWebhookPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := h.service.HandleOrderWebhook(r.Context(), payload)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "order not found")
		return 0, false
	}
	return id, true
}

func intParam(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	var invalid domain.ValidationError
	switch {
	case errors.As(err, &invalid), errors.Is(err, domain.ErrUnknownStage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoActiveOrder),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSessionExists),
		errors.Is(err, domain.ErrOrderExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

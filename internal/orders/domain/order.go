package domain

import (
	"strings"
	"time"
)

// OrderStatus captures the lifecycle of a POS order.
type OrderStatus string

const (
	StatusDraft     OrderStatus = "draft"
	StatusSubmitted OrderStatus = "submitted"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDone      OrderStatus = "done"
	StatusCanceled  OrderStatus = "canceled"
)

// Order represents one customer transaction rung up on a POS session.
type Order struct {
	ID           int64       `json:"id"`
	UUID         string      `json:"uuid"`
	SessionID    string      `json:"session_id"`
	ExternalID   string      `json:"external_id,omitempty"`
	CustomerName string      `json:"customer_name"`
	AmountCents  int64       `json:"amount_cents"`
	Status       OrderStatus `json:"status"`
	SubmittedAt  *time.Time  `json:"submitted_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Ref returns the reference other systems use to name this order.
func (o Order) Ref() Ref {
	return IntRef(o.ID)
}

// Validate ensures the order adheres to business constraints.
func (o Order) Validate() error {
	if strings.TrimSpace(o.SessionID) == "" {
		return ValidationError("session_id is required")
	}
	if strings.TrimSpace(o.CustomerName) == "" {
		return ValidationError("customer_name is required")
	}
	if o.AmountCents <= 0 {
		return ValidationError("amount_cents must be positive")
	}
	return nil
}

// IsTerminal indicates whether the order is in a terminal state.
func (o Order) IsTerminal() bool {
	switch o.Status {
	case StatusDone, StatusCanceled:
		return true
	default:
		return false
	}
}

// CanSubmit reports whether the order may still be sent for preparation.
func (o Order) CanSubmit() bool {
	return o.Status == StatusDraft
}

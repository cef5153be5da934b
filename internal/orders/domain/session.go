package domain

import (
	"strings"
	"time"
)

// Session is an open POS terminal. It holds at most one active order.
type Session struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CurrentOrderID *int64    `json:"current_order_id,omitempty"`
	ClearOnSubmit  bool      `json:"clear_on_submit"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ValidationError("session id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return ValidationError("session name is required")
	}
	return nil
}

// HasActiveOrder reports whether an order is currently selected on the terminal.
func (s Session) HasActiveOrder() bool {
	return s.CurrentOrderID != nil
}

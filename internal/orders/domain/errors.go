package domain

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderExists       = errors.New("order already exists")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExists     = errors.New("session already exists")
	ErrNoActiveOrder     = errors.New("session has no active order")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrUnknownStage      = errors.New("unknown preparation stage")
)

// ValidationError reports input that a use case refuses before touching state.
type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

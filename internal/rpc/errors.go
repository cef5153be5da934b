package rpc

import "fmt"

// Failure kinds reported by Error.
const (
	KindEncode    = "encode"
	KindTransport = "transport"
	KindTimeout   = "timeout"
	KindStatus    = "status"
)

// Error is returned for every failed Call.
type Error struct {
	Kind       string
	Path       string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FailureKind labels the failure for logs and metrics.
func (e *Error) FailureKind() string {
	return e.Kind
}

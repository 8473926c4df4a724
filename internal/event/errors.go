package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for event delivery.
var (
	// ErrQueueFull is returned when the bridge buffer cannot accept more events.
	ErrQueueFull = errors.New("event queue is full")

	// ErrBridgeClosed is returned when events are offered to a closed bridge.
	ErrBridgeClosed = errors.New("event bridge is closed")

	// ErrHandlerPanic is returned when a handler panics.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")
)

// HandlerError wraps an error from a bus handler.
type HandlerError struct {
	// SubscriptionID is the ID of the subscription whose handler failed.
	SubscriptionID uint64

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler error for subscription %d: %v", e.SubscriptionID, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

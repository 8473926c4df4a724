package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrUnknownCommand indicates a command name the CLI does not know.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrUsage indicates a command was called with the wrong arguments.
	ErrUsage = errors.New("usage error")

	// ErrWatchUnsupported indicates the configured backend has no file to watch.
	ErrWatchUnsupported = errors.New("watch requires the file backend")

	// ErrShutdown indicates the application was used after Shutdown.
	ErrShutdown = errors.New("application shut down")
)

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return "init " + e.Component + ": " + e.Err.Error()
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op     string // Operation name (e.g., "backup", "set")
	Target string // Target of the operation (e.g., record key)
	Err    error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{Op: op, Target: target, Err: err}
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ComponentError represents an error from a specific component.
type ComponentError struct {
	Component string // Component name (e.g., "bridge", "watcher")
	Action    string // Action being performed
	Err       error  // Underlying error
}

func (e *ComponentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Action != "" {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

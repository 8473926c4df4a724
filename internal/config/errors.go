package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration loading.
var (
	// ErrUnknownBackend indicates a storage backend name that is not supported.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrFileNotFound indicates an explicitly requested config file doesn't exist.
	ErrFileNotFound = errors.New("config file not found")

	// ErrValidationFailed indicates the merged configuration is unusable.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError describes an invalid configuration value.
type ValidationError struct {
	// Path is the dotted configuration key.
	Path string
	// Message describes the problem.
	Message string
	// Value is the rejected value.
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Path, e.Message, e.Value)
}

// Is implements error matching for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

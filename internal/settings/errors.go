package settings

import (
	"errors"
	"fmt"
)

// ErrInvalidSetting indicates a value was rejected by field validation.
var ErrInvalidSetting = errors.New("invalid setting")

// ValidationError describes why a value was rejected for a field.
type ValidationError struct {
	// Field is the record key of the setting.
	Field string
	// Value is the rejected value.
	Value any
	// Message describes the violated rule.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Is implements error matching for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSetting
}

func invalid(field string, value any, format string, args ...any) error {
	return &ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)}
}

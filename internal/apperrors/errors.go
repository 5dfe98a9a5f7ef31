package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates that a document or posting failed a business rule.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates that a requested record could not be found.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates that a record with the same name already exists.
	ErrDuplicate = errors.New("record already exists")

	// ErrInvalidState indicates an action not allowed from the document's current status.
	ErrInvalidState = errors.New("invalid document state")
)

// ValidationError describes a single rejected value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validation returns a ValidationError for field with a formatted message.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound wraps ErrNotFound with the schema and name that were missing.
func NotFound(schema, name string) error {
	return fmt.Errorf("%s %q: %w", schema, name, ErrNotFound)
}

// InvalidState wraps ErrInvalidState with a description.
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidState)
}

package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrValidation indicates a required card field was empty.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates no card has the requested id.
	ErrNotFound = errors.New("not found")

	// ErrFormat indicates an import payload could not be used at all.
	ErrFormat = errors.New("invalid format")

	// ErrEmptyQueue indicates a quiz was started with nothing to quiz.
	ErrEmptyQueue = errors.New("no cards to quiz")

	// ErrInvalidState indicates a quiz call arrived out of order.
	ErrInvalidState = errors.New("invalid state")

	// ErrPersistence indicates the underlying store failed to read or write.
	ErrPersistence = errors.New("persistence failed")
)

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError carries the id that could not be found.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("card with id %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a not found error for id.
func NewNotFoundError(id string) error {
	return &NotFoundError{ID: id}
}

// FormatError describes why an import payload was rejected.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid format: %s: %v", e.Reason, e.Err)
	}
	return "invalid format: " + e.Reason
}

// Unwrap exposes both the sentinel and the decoding cause.
func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}

// NewFormatError creates a format error, optionally wrapping the decoder error.
func NewFormatError(reason string, err error) error {
	return &FormatError{Reason: reason, Err: err}
}

// InvalidStateError reports a quiz operation attempted in the wrong state.
type InvalidStateError struct {
	Op    string
	State string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Op, e.State)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// NewInvalidStateError creates an invalid state error.
func NewInvalidStateError(op, state string) error {
	return &InvalidStateError{Op: op, State: state}
}

// PersistenceError wraps a store failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// NewPersistenceError creates a persistence error for op.
func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// StatusMessage turns an operation error into the short line shown to the
// user. Persistence failures are worded so they cannot be mistaken for a
// no-op.
func StatusMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPersistence):
		return "Could not save: " + err.Error()
	case errors.Is(err, ErrValidation):
		return "Front and back are required"
	case errors.Is(err, ErrNotFound):
		return "Card not found"
	case errors.Is(err, ErrFormat):
		var fe *FormatError
		if errors.As(err, &fe) {
			return "Import failed: " + fe.Reason
		}
		return "Import failed"
	case errors.Is(err, ErrEmptyQueue):
		return "No cards to quiz"
	case errors.Is(err, ErrInvalidState):
		return "Quiz: " + err.Error()
	default:
		return "Something went wrong: " + err.Error()
	}
}

// Package services provides the application layer between the HTTP handlers
// and persistence: definition validation, lifecycle transitions, and lookups.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors that map to client responses.
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest     = errors.New("invalid request")
	ErrWorkflowNil        = errors.New("workflow cannot be nil")
	ErrStepsRequired      = errors.New("workflow must have at least one step to activate")
	ErrSegmentUnknown     = errors.New("workflow references unknown segment")
	ErrCustomerIDRequired = errors.New("customer id is required")
	ErrEventNameRequired  = errors.New("event name is required")
)

// ServiceError wraps service-level errors with operation context.
type ServiceError struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks whether an error should surface as HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrStepsRequired) ||
		errors.Is(err, ErrSegmentUnknown) ||
		errors.Is(err, ErrCustomerIDRequired) ||
		errors.Is(err, ErrEventNameRequired)
}

// NewValidationError creates a validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{Op: op, Code: code, Message: message, Err: err}
}

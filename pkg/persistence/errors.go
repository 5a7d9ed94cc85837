package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations use.
var (
	// ErrWorkflowNotFound indicates no workflow exists for the identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrExecutionNotFound indicates no execution exists for the identifier.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrCustomerNotFound indicates no customer exists for the identifier.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrSegmentNotFound indicates no segment exists for the identifier.
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrVersionConflict indicates an optimistic update lost the race: the
	// stored execution version no longer matches the one read.
	ErrVersionConflict = errors.New("execution version conflict")
)

// ExecutionError wraps execution-related errors with operation context.
type ExecutionError struct {
	Op          string // Operation being performed (e.g., "Update", "ListDue")
	ExecutionID string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s operation failed for execution %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExecutionError creates an execution error with context.
func NewExecutionError(op, executionID string, err error) *ExecutionError {
	return &ExecutionError{Op: op, ExecutionID: executionID, Err: err}
}

// IsWorkflowNotFound checks whether an error indicates a missing workflow.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsExecutionNotFound checks whether an error indicates a missing execution.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsCustomerNotFound checks whether an error indicates a missing customer.
func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

// IsSegmentNotFound checks whether an error indicates a missing segment.
func IsSegmentNotFound(err error) bool {
	return errors.Is(err, ErrSegmentNotFound)
}

// IsVersionConflict checks whether an error indicates an optimistic update
// losing a race.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

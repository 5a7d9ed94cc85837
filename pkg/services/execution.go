package services

import (
	"context"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
)

// ErrExecutionNotFound is returned when an execution is not found.
var ErrExecutionNotFound = persistence.ErrExecutionNotFound

// Execution exposes the read-only audit surface over workflow runs.
type Execution struct {
	persistence persistence.Persistence
}

func NewExecution(p persistence.Persistence) *Execution {
	return &Execution{persistence: p}
}

// FetchByID retrieves one execution with its step audit trail.
func (e *Execution) FetchByID(ctx context.Context, id string) (*models.Execution, error) {
	return e.persistence.Executions().GetByID(ctx, id)
}

// FetchByWorkflow retrieves all executions of a workflow.
func (e *Execution) FetchByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	_, err := e.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	return e.persistence.Executions().ListByWorkflow(ctx, workflowID)
}

// FetchSends retrieves the send records an execution produced.
func (e *Execution) FetchSends(ctx context.Context, executionID string) ([]*models.Send, error) {
	_, err := e.persistence.Executions().GetByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	return e.persistence.Sends().ListByExecution(ctx, executionID)
}

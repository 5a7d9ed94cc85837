// Package persistence provides the data storage abstraction for workflows,
// executions, customers, segments, and send records.
package persistence

import (
	"context"
	"time"

	"github.com/gangrun/outreach/pkg/models"
)

// Persistence bundles the repositories backing the automation engine.
type Persistence interface {
	Workflows() WorkflowRepository
	Executions() ExecutionRepository
	Customers() CustomerRepository
	Segments() SegmentRepository
	Sends() SendRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	GetAll(ctx context.Context) ([]*models.Workflow, error)
	GetActive(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository stores workflow executions. Update is optimistic: the
// stored version must match the execution's version, which is then
// incremented; a mismatch returns ErrVersionConflict.
type ExecutionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Execution, error)
	Create(ctx context.Context, execution *models.Execution) error
	Update(ctx context.Context, execution *models.Execution) error
	ListDue(ctx context.Context, now time.Time) ([]*models.Execution, error)
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error)
}

// CustomerRepository stores customers and their order history summary.
type CustomerRepository interface {
	GetAll(ctx context.Context) ([]*models.Customer, error)
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	Save(ctx context.Context, customer *models.Customer) error
	OrderStats(ctx context.Context, customerID string) (*models.OrderStats, error)
	RecordOrder(ctx context.Context, order *models.Order) error
	// ListInactiveSince returns customers who have ordered before, but not
	// since the cutoff.
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]*models.Customer, error)
}

// SegmentRepository stores materialized audience segments.
type SegmentRepository interface {
	GetAll(ctx context.Context) ([]*models.Segment, error)
	GetByID(ctx context.Context, id string) (*models.Segment, error)
	Save(ctx context.Context, segment *models.Segment) error
	Delete(ctx context.Context, id string) error
}

// SendRepository stores outbound send records.
type SendRepository interface {
	Record(ctx context.Context, send *models.Send) error
	ListByExecution(ctx context.Context, executionID string) ([]*models.Send, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*models.Send, error)
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
)

// ErrWorkflowNotFound is returned when a workflow is not found.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

type Workflow struct {
	persistence persistence.Persistence
	validator   *validator.Validate
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(p persistence.Persistence) *Workflow {
	return &Workflow{
		persistence: p,
		validator:   validator.New(),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// FetchAll retrieves all workflow definitions.
func (w *Workflow) FetchAll(ctx context.Context) ([]*models.Workflow, error) {
	return w.persistence.Workflows().GetAll(ctx)
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return w.persistence.Workflows().GetByID(ctx, id)
}

// Create validates and stores a new workflow. New workflows start inactive;
// activation is a separate transition.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.IsActive = false
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	err := w.validate(ctx, workflow)
	if err != nil {
		return nil, err
	}

	err = w.persistence.Workflows().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update modifies an existing workflow. Activation state and timestamps of
// the stored definition are preserved.
func (w *Workflow) Update(ctx context.Context, workflowID string, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	existing, err := w.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.ID = workflowID
	workflow.IsActive = existing.IsActive
	workflow.ActivatedAt = existing.ActivatedAt
	workflow.LastScheduledRunAt = existing.LastScheduledRunAt
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	err = w.validate(ctx, workflow)
	if err != nil {
		return nil, err
	}

	err = w.persistence.Workflows().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Delete removes a workflow by its ID. In-flight executions are not touched.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	_, err := w.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return err
	}

	err = w.persistence.Workflows().Delete(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

// Activate turns the workflow on. Requires at least one step; records the
// activation time used by schedule triggers.
func (w *Workflow) Activate(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := w.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if len(workflow.Steps) == 0 {
		return nil, ErrStepsRequired
	}

	if workflow.IsActive {
		return workflow, nil
	}

	now := time.Now().UTC()
	workflow.IsActive = true
	workflow.ActivatedAt = &now
	workflow.LastScheduledRunAt = nil
	workflow.UpdatedAt = now

	err = w.persistence.Workflows().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to activate workflow: %w", err)
	}

	return workflow, nil
}

// Deactivate turns the workflow off. In-flight executions continue to run.
func (w *Workflow) Deactivate(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := w.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	workflow.IsActive = false
	workflow.UpdatedAt = time.Now().UTC()

	err = w.persistence.Workflows().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate workflow: %w", err)
	}

	return workflow, nil
}

func (w *Workflow) validate(ctx context.Context, workflow *models.Workflow) error {
	err := w.validator.Struct(workflow)
	if err != nil {
		return NewValidationError("validate", "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	err = workflow.Validate()
	if err != nil {
		return NewValidationError("validate", "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	if workflow.SegmentID != nil && *workflow.SegmentID != "" {
		_, err := w.persistence.Segments().GetByID(ctx, *workflow.SegmentID)
		if err != nil {
			if persistence.IsSegmentNotFound(err) {
				return fmt.Errorf("%w: %s", ErrSegmentUnknown, *workflow.SegmentID)
			}

			return fmt.Errorf("failed to check segment %s: %w", *workflow.SegmentID, err)
		}
	}

	return nil
}

package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"
	"time"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
)

const executionCollection = "executions"

// ExecutionRepository handles execution file operations. Optimistic updates
// are serialized with a local mutex so the version check and write are one
// unit, matching the row-level guarantee of the SQL implementation.
type ExecutionRepository struct {
	store    *Persistence
	updateMu sync.Mutex
}

func (r *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	var execution models.Execution

	err := r.store.read(executionCollection, id, &execution)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, persistence.ErrExecutionNotFound
	}

	if err != nil {
		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	return &execution, nil
}

func (r *ExecutionRepository) Create(_ context.Context, execution *models.Execution) error {
	if execution.Version == 0 {
		execution.Version = 1
	}

	return r.store.write(executionCollection, execution.ID, execution)
}

func (r *ExecutionRepository) Update(ctx context.Context, execution *models.Execution) error {
	r.updateMu.Lock()
	defer r.updateMu.Unlock()

	stored, err := r.GetByID(ctx, execution.ID)
	if err != nil {
		return err
	}

	if stored.Version != execution.Version {
		return persistence.NewExecutionError("Update", execution.ID, persistence.ErrVersionConflict)
	}

	execution.Version++

	if err := r.store.write(executionCollection, execution.ID, execution); err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Execution, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}

	due := make([]*models.Execution, 0)

	for _, execution := range all {
		if execution.Status != models.ExecutionStatusRunning || execution.WaitUntil == nil {
			continue
		}

		if !execution.WaitUntil.After(now) {
			due = append(due, execution)
		}
	}

	return due, nil
}

func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	all, err := r.list(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Execution, 0)

	for _, execution := range all {
		if execution.WorkflowID == workflowID {
			matched = append(matched, execution)
		}
	}

	return matched, nil
}

func (r *ExecutionRepository) list(ctx context.Context) ([]*models.Execution, error) {
	ids, err := r.store.ids(executionCollection)
	if err != nil {
		return nil, err
	}

	executions := make([]*models.Execution, 0, len(ids))

	for _, id := range ids {
		execution, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load execution %s: %w", id, err)
		}

		executions = append(executions, execution)
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.Before(executions[j].StartedAt)
	})

	return executions, nil
}

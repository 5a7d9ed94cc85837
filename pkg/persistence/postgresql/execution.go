package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
)

// ExecutionRepository handles execution database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const executionColumns = `
	id
  , workflow_id
  , customer_id
  , trigger_data
  , status
  , current_step
  , step_results
  , wait_until
  , error_message
  , version
  , started_at
  , completed_at
`

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`

	execution, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrExecutionNotFound
	}

	if err != nil {
		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	return execution, nil
}

func (r *ExecutionRepository) Create(ctx context.Context, execution *models.Execution) error {
	if execution.Version == 0 {
		execution.Version = 1
	}

	triggerJSON, resultsJSON, err := marshalExecutionJSON(execution)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, err)
	}

	query := `
		INSERT INTO executions (id, workflow_id, customer_id, trigger_data, status, current_step,
			step_results, wait_until, error_message, version, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID, execution.WorkflowID, execution.CustomerID, triggerJSON,
		execution.Status, execution.CurrentStep, resultsJSON, execution.WaitUntil,
		execution.ErrorMessage, execution.Version, execution.StartedAt, execution.CompletedAt)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, err)
	}

	return nil
}

// Update persists the execution only when the stored version matches the one
// the caller loaded. The row's version is incremented atomically so two
// concurrent resumers cannot both advance from the same base state.
func (r *ExecutionRepository) Update(ctx context.Context, execution *models.Execution) error {
	triggerJSON, resultsJSON, err := marshalExecutionJSON(execution)
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	query := `
		UPDATE executions SET
			trigger_data = $2,
			status = $3,
			current_step = $4,
			step_results = $5,
			wait_until = $6,
			error_message = $7,
			version = version + 1,
			completed_at = $8
		WHERE id = $1 AND version = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		execution.ID, triggerJSON, execution.Status, execution.CurrentStep,
		resultsJSON, execution.WaitUntil, execution.ErrorMessage,
		execution.CompletedAt, execution.Version)
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewExecutionError("Update", execution.ID, err)
	}

	if affected == 0 {
		return persistence.NewExecutionError("Update", execution.ID, persistence.ErrVersionConflict)
	}

	execution.Version++

	return nil
}

func (r *ExecutionRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Execution, error) {
	query := `SELECT ` + executionColumns + `
		FROM executions
		WHERE status = $1 AND wait_until IS NOT NULL AND wait_until <= $2
		ORDER BY wait_until
	`

	return r.query(ctx, query, models.ExecutionStatusRunning, now)
}

func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE workflow_id = $1 ORDER BY started_at`

	return r.query(ctx, query, workflowID)
}

func (r *ExecutionRepository) query(ctx context.Context, query string, args ...any) ([]*models.Execution, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func (r *ExecutionRepository) scan(row rowScanner) (*models.Execution, error) {
	var (
		execution   models.Execution
		triggerJSON []byte
		resultsJSON []byte
	)

	err := row.Scan(
		&execution.ID, &execution.WorkflowID, &execution.CustomerID, &triggerJSON,
		&execution.Status, &execution.CurrentStep, &resultsJSON, &execution.WaitUntil,
		&execution.ErrorMessage, &execution.Version, &execution.StartedAt, &execution.CompletedAt)
	if err != nil {
		return nil, err
	}

	if len(triggerJSON) > 0 {
		err = json.Unmarshal(triggerJSON, &execution.TriggerData)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
		}
	}

	err = json.Unmarshal(resultsJSON, &execution.StepResults)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal step results: %w", err)
	}

	return &execution, nil
}

func marshalExecutionJSON(execution *models.Execution) ([]byte, []byte, error) {
	triggerJSON, err := json.Marshal(execution.TriggerData)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	results := execution.StepResults
	if results == nil {
		results = []models.StepRecord{}
	}

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal step results: %w", err)
	}

	return triggerJSON, resultsJSON, nil
}

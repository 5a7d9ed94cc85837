package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gangrun/outreach/pkg/eventbus"
	"github.com/gangrun/outreach/pkg/events"
	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
)

// Driver advances one execution through its workflow's steps. Run is safe to
// call repeatedly on the same execution: it no-ops on terminal or missing
// executions, and concurrent runners are fenced by the execution version.
type Driver struct {
	persistence persistence.Persistence
	executor    *Executor
	scheduler   *Scheduler
	eventBus    eventbus.EventPublisher
	logger      *slog.Logger
}

func NewDriver(p persistence.Persistence, executor *Executor, scheduler *Scheduler, bus eventbus.EventPublisher, logger *slog.Logger) *Driver {
	return &Driver{
		persistence: p,
		executor:    executor,
		scheduler:   scheduler,
		eventBus:    bus,
		logger:      logger.With("module", "execution_driver"),
	}
}

// Run resumes the execution from its current step and advances until it
// completes, fails, or suspends on a wait step.
func (d *Driver) Run(ctx context.Context, executionID string) error {
	execution, err := d.persistence.Executions().GetByID(ctx, executionID)
	if err != nil {
		if persistence.IsExecutionNotFound(err) {
			return nil
		}

		return fmt.Errorf("failed to load execution %s: %w", executionID, err)
	}

	if execution.Status != models.ExecutionStatusRunning {
		return nil
	}

	workflow, err := d.persistence.Workflows().GetByID(ctx, execution.WorkflowID)
	if err != nil {
		return d.fail(ctx, execution, fmt.Sprintf("failed to load workflow: %v", err))
	}

	customer, err := d.persistence.Customers().GetByID(ctx, execution.CustomerID)
	if err != nil {
		return d.fail(ctx, execution, fmt.Sprintf("failed to load customer: %v", err))
	}

	if len(workflow.Steps) == 0 {
		return d.complete(ctx, execution, "No steps to execute")
	}

	for execution.CurrentStep < len(workflow.Steps) {
		index := execution.CurrentStep
		step := workflow.Steps[index]

		result, err := d.executor.ExecuteStep(ctx, step, execution, customer)
		if err != nil {
			d.logger.ErrorContext(ctx, "step failed",
				"execution_id", execution.ID, "step_id", step.ID, "error", err)

			return d.fail(ctx, execution, err.Error())
		}

		execution.StepResults = append(execution.StepResults, models.StepRecord{
			StepID:     step.ID,
			Result:     *result,
			ExecutedAt: time.Now().UTC(),
		})
		execution.CurrentStep = index + 1

		// The wait deadline is persisted together with the step advance so
		// a crash after this update never redoes the step and never loses
		// the deadline.
		execution.WaitUntil = nil
		if result.Wait {
			execution.WaitUntil = result.WaitUntil
		}

		err = d.persistence.Executions().Update(ctx, execution)
		if err != nil {
			if persistence.IsVersionConflict(err) {
				d.logger.WarnContext(ctx, "lost execution update race",
					"execution_id", execution.ID, "step_id", step.ID)

				return nil
			}

			return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
		}

		switch {
		case result.NextStep != "":
			_, nextIndex, ok := workflow.StepByID(result.NextStep)
			if !ok {
				return d.fail(ctx, execution, fmt.Sprintf("dangling branch reference %q from step %q", result.NextStep, step.ID))
			}

			execution.CurrentStep = nextIndex

			err = d.persistence.Executions().Update(ctx, execution)
			if err != nil {
				if persistence.IsVersionConflict(err) {
					return nil
				}

				return fmt.Errorf("failed to persist execution %s: %w", execution.ID, err)
			}
		case result.Wait:
			return d.scheduler.Schedule(ctx, execution.ID, *result.WaitUntil)
		}
	}

	return d.complete(ctx, execution, "")
}

func (d *Driver) complete(ctx context.Context, execution *models.Execution, message string) error {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.ErrorMessage = message
	execution.WaitUntil = nil
	execution.CompletedAt = &now

	err := d.persistence.Executions().Update(ctx, execution)
	if err != nil {
		if persistence.IsVersionConflict(err) {
			return nil
		}

		return fmt.Errorf("failed to complete execution %s: %w", execution.ID, err)
	}

	d.logger.InfoContext(ctx, "execution completed",
		"execution_id", execution.ID, "workflow_id", execution.WorkflowID,
		"steps_executed", len(execution.StepResults))

	event := events.ExecutionCompleted{
		BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, execution.WorkflowID),
		ExecutionID:   execution.ID,
		CustomerID:    execution.CustomerID,
		StepsExecuted: len(execution.StepResults),
		DurationMs:    now.Sub(execution.StartedAt).Milliseconds(),
	}

	err = d.eventBus.Publish(ctx, execution.ID, event)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to publish completion event",
			"execution_id", execution.ID, "error", err)
	}

	return nil
}

func (d *Driver) fail(ctx context.Context, execution *models.Execution, message string) error {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.ErrorMessage = message
	execution.WaitUntil = nil
	execution.CompletedAt = &now

	err := d.persistence.Executions().Update(ctx, execution)
	if err != nil {
		if persistence.IsVersionConflict(err) {
			return nil
		}

		return fmt.Errorf("failed to mark execution %s failed: %w", execution.ID, err)
	}

	stepID := ""
	if n := len(execution.StepResults); n > 0 {
		stepID = execution.StepResults[n-1].StepID
	}

	event := events.ExecutionFailed{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, execution.WorkflowID),
		ExecutionID: execution.ID,
		CustomerID:  execution.CustomerID,
		StepID:      stepID,
		Error:       message,
		DurationMs:  now.Sub(execution.StartedAt).Milliseconds(),
	}

	err = d.eventBus.Publish(ctx, execution.ID, event)
	if err != nil {
		d.logger.ErrorContext(ctx, "failed to publish failure event",
			"execution_id", execution.ID, "error", err)
	}

	return nil
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gangrun/outreach/pkg/eventbus"
	"github.com/gangrun/outreach/pkg/events"
	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
	"github.com/gangrun/outreach/pkg/segments"
)

// Evaluator matches incoming marketing events against active workflow
// triggers and starts executions for eligible customers.
type Evaluator struct {
	persistence persistence.Persistence
	segments    *segments.Resolver
	eventBus    eventbus.EventPublisher
	logger      *slog.Logger
}

func NewEvaluator(p persistence.Persistence, resolver *segments.Resolver, bus eventbus.EventPublisher, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		persistence: p,
		segments:    resolver,
		eventBus:    bus,
		logger:      logger.With("module", "trigger_evaluator"),
	}
}

// HandleEvent scans active workflows for triggers matching the event and
// starts an execution per match. A failure to trigger one workflow never
// blocks the others.
func (ev *Evaluator) HandleEvent(ctx context.Context, eventName, customerID string, payload map[string]any) {
	if customerID == "" {
		return
	}

	workflows, err := ev.persistence.Workflows().GetActive(ctx)
	if err != nil {
		ev.logger.ErrorContext(ctx, "failed to list active workflows",
			"event", eventName, "error", err)

		return
	}

	for _, workflow := range workflows {
		if !ev.triggerMatches(workflow, eventName, payload) {
			continue
		}

		_, err := ev.TriggerWorkflow(ctx, workflow.ID, customerID, payload)
		if err != nil {
			ev.logEligibility(ctx, workflow.ID, customerID, eventName, err)
		}
	}
}

func (ev *Evaluator) triggerMatches(workflow *models.Workflow, eventName string, payload map[string]any) bool {
	switch workflow.Trigger.Kind {
	case models.TriggerKindEvent:
		return workflow.Trigger.Event.EventName == eventName
	case models.TriggerKindCondition:
		cond := workflow.Trigger.Condition

		return cond.Operator.Evaluate(payload[cond.Field], cond.Value)
	default:
		return false
	}
}

func (ev *Evaluator) logEligibility(ctx context.Context, workflowID, customerID, eventName string, err error) {
	switch {
	case persistence.IsWorkflowNotFound(err), persistence.IsCustomerNotFound(err), IsNotEligible(err):
		ev.logger.DebugContext(ctx, "customer not eligible for workflow",
			"workflow_id", workflowID, "customer_id", customerID,
			"event", eventName, "reason", err)
	default:
		ev.logger.ErrorContext(ctx, "failed to trigger workflow",
			"workflow_id", workflowID, "customer_id", customerID,
			"event", eventName, "error", err)
	}
}

// TriggerWorkflow starts one execution of a workflow for one customer. The
// execution record is returned immediately; the steps run out-of-band on a
// worker consuming the workflow.triggered event.
func (ev *Evaluator) TriggerWorkflow(ctx context.Context, workflowID, customerID string, triggerData map[string]any) (*models.Execution, error) {
	workflow, err := ev.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !workflow.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowInactive, workflowID)
	}

	_, err = ev.persistence.Customers().GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	eligible, err := ev.segments.IsCustomerInSegment(ctx, workflow, customerID)
	if err != nil {
		return nil, err
	}

	if !eligible {
		return nil, fmt.Errorf("%w: customer %s, workflow %s", ErrCustomerNotInSegment, customerID, workflowID)
	}

	execution := &models.Execution{
		ID:          uuid.New().String(),
		WorkflowID:  workflow.ID,
		CustomerID:  customerID,
		TriggerData: triggerData,
		Status:      models.ExecutionStatusRunning,
		CurrentStep: 0,
		StepResults: []models.StepRecord{},
		StartedAt:   time.Now().UTC(),
	}

	err = ev.persistence.Executions().Create(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	event := events.WorkflowTriggered{
		BaseEvent:   events.NewBaseEvent(events.WorkflowTriggeredEvent, workflow.ID),
		ExecutionID: execution.ID,
		CustomerID:  customerID,
		TriggerData: triggerData,
	}

	err = ev.eventBus.Publish(ctx, execution.ID, event)
	if err != nil {
		return nil, fmt.Errorf("failed to publish trigger event: %w", err)
	}

	ev.logger.InfoContext(ctx, "workflow triggered",
		"workflow_id", workflow.ID, "customer_id", customerID, "execution_id", execution.ID)

	return execution, nil
}

// StartScheduled starts executions for every eligible recipient of a
// schedule-triggered workflow. Per-customer failures are isolated.
func (ev *Evaluator) StartScheduled(ctx context.Context, workflow *models.Workflow) (int, error) {
	recipients, err := ev.segments.ResolveRecipients(ctx, workflow)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve recipients for workflow %s: %w", workflow.ID, err)
	}

	started := 0

	for _, customer := range recipients {
		_, err := ev.TriggerWorkflow(ctx, workflow.ID, customer.ID, map[string]any{"scheduled": true})
		if err != nil {
			ev.logEligibility(ctx, workflow.ID, customer.ID, "scheduled", err)

			continue
		}

		started++
	}

	return started, nil
}

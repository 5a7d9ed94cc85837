package engine

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gangrun/outreach/pkg/events"
	"github.com/gangrun/outreach/pkg/models"
)

func TestDriverLinearAdvance(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	te.seedCustomer(t, optedInCustomer("c1"))
	te.seedWorkflow(t, &models.Workflow{
		ID: "wf-1", Name: "welcome series", IsActive: true,
		Steps: []*models.Step{emailStep("a", "one"), emailStep("b", "two"), emailStep("c", "three")},
	})
	execution := te.startExecution(t, "wf-1", "c1")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	final, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	require.Len(t, final.StepResults, 3)
	assert.Equal(t, "a", final.StepResults[0].StepID)
	assert.Equal(t, "b", final.StepResults[1].StepID)
	assert.Equal(t, "c", final.StepResults[2].StepID)

	sends, err := te.store.Sends().ListByExecution(ctx, execution.ID)
	require.NoError(t, err)
	assert.Len(t, sends, 3)
}

func TestDriverEmptyStepsCompletes(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	te.seedCustomer(t, optedInCustomer("c1"))
	te.seedWorkflow(t, &models.Workflow{ID: "wf-empty", Name: "empty workflow", IsActive: true})
	execution := te.startExecution(t, "wf-empty", "c1")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	final, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.Equal(t, "No steps to execute", final.ErrorMessage)
	assert.Empty(t, final.StepResults)
}

func TestDriverTerminalStatesAreSticky(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	te.seedCustomer(t, optedInCustomer("c1"))
	te.seedWorkflow(t, &models.Workflow{
		ID: "wf-1", Name: "welcome series", IsActive: true,
		Steps: []*models.Step{emailStep("a", "one")},
	})
	execution := te.startExecution(t, "wf-1", "c1")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	first, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusCompleted, first.Status)

	// Re-running a terminal execution is a no-op both times.
	require.NoError(t, te.driver.Run(ctx, execution.ID))
	require.NoError(t, te.driver.Run(ctx, execution.ID))

	second, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.CurrentStep, second.CurrentStep)
	assert.Len(t, second.StepResults, len(first.StepResults))
}

func TestDriverRunMissingExecutionIsNoop(t *testing.T) {
	te := newTestEngine(t)
	require.NoError(t, te.driver.Run(context.Background(), "does-not-exist"))
}

func TestDriverConditionalBranch(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	customer := optedInCustomer("c1")
	te.seedCustomer(t, customer)

	// Five orders on record; greater_than 3 routes to the true branch.
	for i := range 5 {
		require.NoError(t, te.store.Customers().RecordOrder(ctx, &models.Order{
			ID: "o" + strconv.Itoa(i), CustomerID: "c1", Total: 20, PlacedAt: time.Now().UTC(),
		}))
	}

	te.seedWorkflow(t, &models.Workflow{
		ID: "wf-branch", Name: "vip check", IsActive: true,
		Steps: []*models.Step{
			{ID: "check", Kind: models.StepKindCondition, Condition: &models.ConditionStep{
				Field:    "order_count",
				Operator: models.OperatorGreaterThan,
				Value:    3,
				Branches: &models.Branches{True: "vip", False: "nudge"},
			}},
			{ID: "nudge", Kind: models.StepKindEmail, Email: &models.EmailStep{Subject: "come back"}},
			{ID: "vip", Kind: models.StepKindEmail, Email: &models.EmailStep{Subject: "vip perks"}},
		},
	})
	execution := te.startExecution(t, "wf-branch", "c1")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	final, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)

	sends, err := te.store.Sends().ListByExecution(ctx, execution.ID)
	require.NoError(t, err)
	require.Len(t, sends, 1)
	assert.Equal(t, "vip perks", sends[0].Subject)
}

func TestDriverDanglingBranchFails(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	te.seedCustomer(t, optedInCustomer("c1"))

	// Saved directly, bypassing definition validation, to model a stale
	// branch target.
	require.NoError(t, te.store.Workflows().Save(ctx, &models.Workflow{
		ID: "wf-dangling", Name: "stale branch", IsActive: true,
		Trigger: models.Trigger{Kind: models.TriggerKindEvent, Event: &models.EventTrigger{EventName: EventUserRegistered}},
		Steps: []*models.Step{
			{ID: "check", Kind: models.StepKindCondition, Condition: &models.ConditionStep{
				Field:    "email",
				Operator: models.OperatorContains,
				Value:    "@",
				Branches: &models.Branches{True: "removed-step", False: "also-removed"},
			}},
		},
	}))
	execution := te.startExecution(t, "wf-dangling", "c1")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	final, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "dangling branch reference")
}

func TestDriverWaitSuspends(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	te.seedCustomer(t, optedInCustomer("c1"))
	te.seedWorkflow(t, &models.Workflow{
		ID: "wf-wait", Name: "delayed email", IsActive: true,
		Steps: []*models.Step{
			{ID: "pause", Kind: models.StepKindWait, Wait: &models.WaitStep{DurationMinutes: 60}},
			emailStep("after", "later"),
		},
	})
	execution := te.startExecution(t, "wf-wait", "c1")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	suspended, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, suspended.Status)
	assert.Equal(t, 1, suspended.CurrentStep)
	require.Len(t, suspended.StepResults, 1)
	require.NotNil(t, suspended.WaitUntil)
	assert.Greater(t, time.Until(*suspended.WaitUntil), 55*time.Minute)

	// The email step must not have run synchronously.
	sends, err := te.store.Sends().ListByExecution(ctx, execution.ID)
	require.NoError(t, err)
	assert.Empty(t, sends)
}

func TestDriverZeroWaitResumesAndCompletes(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	te.seedCustomer(t, optedInCustomer("c1"))
	te.seedWorkflow(t, &models.Workflow{
		ID: "wf-now", Name: "instant wait", IsActive: true,
		Steps: []*models.Step{
			{ID: "w", Kind: models.StepKindWait, Wait: &models.WaitStep{DurationMinutes: 0}},
			emailStep("e", "Hi"),
		},
	})
	execution := te.startExecution(t, "wf-now", "c1")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	// An elapsed deadline publishes the resume immediately.
	var resumed bool
	for _, event := range te.bus.published() {
		if due, ok := event.(events.ExecutionResumeDue); ok && due.ExecutionID == execution.ID {
			resumed = true
		}
	}
	require.True(t, resumed)

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	final, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	assert.Len(t, final.StepResults, 2)
}

func TestDriverConsentGating(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	te.seedCustomer(t, &models.Customer{
		ID: "c-optout", Email: "optout@example.com", MarketingOptIn: false, SMSOptIn: false,
	})
	te.seedWorkflow(t, &models.Workflow{
		ID: "wf-gated", Name: "gated sends", IsActive: true,
		Steps: []*models.Step{
			emailStep("mail", "Hi"),
			{ID: "text", Kind: models.StepKindSMS, SMS: &models.SMSStep{Message: "Hi"}},
			{ID: "tagit", Kind: models.StepKindTag, Tag: &models.TagStep{Add: []string{"nurture"}}},
		},
	})
	execution := te.startExecution(t, "wf-gated", "c-optout")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	final, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	require.Len(t, final.StepResults, 3)
	assert.Equal(t, models.StepStatusSkipped, final.StepResults[0].Result.Status)
	assert.Equal(t, models.StepStatusSkipped, final.StepResults[1].Result.Status)
	assert.Equal(t, models.StepStatusSuccess, final.StepResults[2].Result.Status)

	sends, err := te.store.Sends().ListByExecution(ctx, execution.ID)
	require.NoError(t, err)
	assert.Empty(t, sends)

	customer, err := te.store.Customers().GetByID(ctx, "c-optout")
	require.NoError(t, err)
	assert.Contains(t, customer.Tags, "nurture")
}

func TestDriverUnknownOperatorEvaluatesFalse(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	te.seedCustomer(t, optedInCustomer("c1"))
	te.seedWorkflow(t, &models.Workflow{
		ID: "wf-bogus", Name: "bogus operator", IsActive: true,
		Steps: []*models.Step{
			{ID: "check", Kind: models.StepKindCondition, Condition: &models.ConditionStep{
				Field: "email", Operator: models.Operator("bogus"), Value: "c1@example.com",
			}},
		},
	})
	execution := te.startExecution(t, "wf-bogus", "c1")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	final, err := te.store.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, final.Status)
	require.Len(t, final.StepResults, 1)
	require.NotNil(t, final.StepResults[0].Result.ConditionMet)
	assert.False(t, *final.StepResults[0].Result.ConditionMet)
}

func TestDriverUpdateUserStep(t *testing.T) {
	ctx := context.Background()
	te := newTestEngine(t)

	te.seedCustomer(t, optedInCustomer("c1"))
	te.seedWorkflow(t, &models.Workflow{
		ID: "wf-update", Name: "profile update", IsActive: true,
		Steps: []*models.Step{
			{ID: "u", Kind: models.StepKindUpdateUser, UpdateUser: &models.UpdateUserStep{
				Fields: map[string]any{"name": "Ada L", "loyalty_tier": "gold"},
			}},
		},
	})
	execution := te.startExecution(t, "wf-update", "c1")

	require.NoError(t, te.driver.Run(ctx, execution.ID))

	customer, err := te.store.Customers().GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ada L", customer.Name)
	assert.Equal(t, "gold", customer.Attributes["loyalty_tier"])
}

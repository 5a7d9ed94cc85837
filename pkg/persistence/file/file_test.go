package file

import (
	"context"
	"testing"
	"time"

	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowRepositorySaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	workflow := &models.Workflow{
		ID:       "wf-1",
		Name:     "welcome series",
		IsActive: true,
		Trigger:  models.Trigger{Kind: models.TriggerKindEvent, Event: &models.EventTrigger{EventName: "user.registered"}},
		Steps: []*models.Step{
			{ID: "e1", Kind: models.StepKindEmail, Email: &models.EmailStep{Subject: "Welcome"}},
		},
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, store.Workflows().Save(ctx, workflow))

	loaded, err := store.Workflows().GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "welcome series", loaded.Name)
	require.Len(t, loaded.Steps, 1)
	require.NotNil(t, loaded.Steps[0].Email)
	assert.Equal(t, "Welcome", loaded.Steps[0].Email.Subject)

	_, err = store.Workflows().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflowRepositoryGetActive(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	trigger := models.Trigger{Kind: models.TriggerKindEvent, Event: &models.EventTrigger{EventName: "order.placed"}}
	require.NoError(t, store.Workflows().Save(ctx, &models.Workflow{ID: "on", Name: "active one", IsActive: true, Trigger: trigger}))
	require.NoError(t, store.Workflows().Save(ctx, &models.Workflow{ID: "off", Name: "paused one", IsActive: false, Trigger: trigger}))

	active, err := store.Workflows().GetActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "on", active[0].ID)
}

func TestExecutionRepositoryOptimisticUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	execution := &models.Execution{
		ID:         "exec-1",
		WorkflowID: "wf-1",
		CustomerID: "cust-1",
		Status:     models.ExecutionStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.Executions().Create(ctx, execution))
	assert.Equal(t, int64(1), execution.Version)

	// First writer wins.
	first := *execution
	first.CurrentStep = 1
	require.NoError(t, store.Executions().Update(ctx, &first))
	assert.Equal(t, int64(2), first.Version)

	// Second writer still holds version 1 and must lose.
	stale := *execution
	stale.CurrentStep = 5
	err := store.Executions().Update(ctx, &stale)
	require.Error(t, err)
	assert.True(t, persistence.IsVersionConflict(err))
}

func TestExecutionRepositoryListDue(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())
	now := time.Now().UTC()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	require.NoError(t, store.Executions().Create(ctx, &models.Execution{
		ID: "due", Status: models.ExecutionStatusRunning, WaitUntil: &past, StartedAt: now,
	}))
	require.NoError(t, store.Executions().Create(ctx, &models.Execution{
		ID: "not-yet", Status: models.ExecutionStatusRunning, WaitUntil: &future, StartedAt: now,
	}))
	require.NoError(t, store.Executions().Create(ctx, &models.Execution{
		ID: "finished", Status: models.ExecutionStatusCompleted, WaitUntil: &past, StartedAt: now,
	}))
	require.NoError(t, store.Executions().Create(ctx, &models.Execution{
		ID: "no-wait", Status: models.ExecutionStatusRunning, StartedAt: now,
	}))

	due, err := store.Executions().ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].ID)
}

func TestCustomerRepositoryOrderStats(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	require.NoError(t, store.Customers().Save(ctx, &models.Customer{ID: "cust-1", Email: "a@b.com"}))

	first := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Customers().RecordOrder(ctx, &models.Order{ID: "o1", CustomerID: "cust-1", Total: 120.50, PlacedAt: first}))
	require.NoError(t, store.Customers().RecordOrder(ctx, &models.Order{ID: "o2", CustomerID: "cust-1", Total: 79.50, PlacedAt: second}))
	require.NoError(t, store.Customers().RecordOrder(ctx, &models.Order{ID: "o3", CustomerID: "other", Total: 10, PlacedAt: second}))

	stats, err := store.Customers().OrderStats(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.OrderCount)
	assert.InDelta(t, 200.0, stats.LifetimeSpend, 0.001)
	require.NotNil(t, stats.LastOrderAt)
	assert.True(t, stats.LastOrderAt.Equal(second))
}

func TestCustomerRepositoryListInactiveSince(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	require.NoError(t, store.Customers().Save(ctx, &models.Customer{ID: "dormant", Email: "d@b.com"}))
	require.NoError(t, store.Customers().Save(ctx, &models.Customer{ID: "recent", Email: "r@b.com"}))
	require.NoError(t, store.Customers().Save(ctx, &models.Customer{ID: "never-ordered", Email: "n@b.com"}))

	longAgo := time.Now().UTC().Add(-90 * 24 * time.Hour)
	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	require.NoError(t, store.Customers().RecordOrder(ctx, &models.Order{ID: "o1", CustomerID: "dormant", Total: 50, PlacedAt: longAgo}))
	require.NoError(t, store.Customers().RecordOrder(ctx, &models.Order{ID: "o2", CustomerID: "recent", Total: 50, PlacedAt: yesterday}))

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)

	inactive, err := store.Customers().ListInactiveSince(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, "dormant", inactive[0].ID)
}

func TestSendRepositoryListByExecution(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	require.NoError(t, store.Sends().Record(ctx, &models.Send{ID: "s1", ExecutionID: "exec-1", CustomerID: "c1", SentAt: time.Now()}))
	require.NoError(t, store.Sends().Record(ctx, &models.Send{ID: "s2", ExecutionID: "exec-2", CustomerID: "c1", SentAt: time.Now()}))

	sends, err := store.Sends().ListByExecution(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, sends, 1)
	assert.Equal(t, "s1", sends[0].ID)
}

package engine

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gangrun/outreach/pkg/eventbus"
	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence/file"
	"github.com/gangrun/outreach/pkg/segments"
)

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *recordingBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)

	return nil
}

func (b *recordingBus) published() []eventbus.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]eventbus.Event(nil), b.events...)
}

type testEngine struct {
	store     *file.Persistence
	bus       *recordingBus
	evaluator *Evaluator
	driver    *Driver
	scheduler *Scheduler
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	logger := testLogger()
	store := file.NewPersistence(t.TempDir())
	bus := &recordingBus{}
	resolver := segments.NewResolver(store, logger)
	executor := NewExecutor(store, logger)
	scheduler := NewScheduler(store, bus, logger)

	return &testEngine{
		store:     store,
		bus:       bus,
		evaluator: NewEvaluator(store, resolver, bus, logger),
		driver:    NewDriver(store, executor, scheduler, bus, logger),
		scheduler: scheduler,
	}
}

func (te *testEngine) seedCustomer(t *testing.T, customer *models.Customer) {
	t.Helper()
	require.NoError(t, te.store.Customers().Save(context.Background(), customer))
}

func (te *testEngine) seedWorkflow(t *testing.T, workflow *models.Workflow) {
	t.Helper()

	if workflow.Trigger.Kind == "" {
		workflow.Trigger = models.Trigger{
			Kind:  models.TriggerKindEvent,
			Event: &models.EventTrigger{EventName: EventUserRegistered},
		}
	}

	require.NoError(t, te.store.Workflows().Save(context.Background(), workflow))
}

func (te *testEngine) startExecution(t *testing.T, workflowID, customerID string) *models.Execution {
	t.Helper()

	execution := &models.Execution{
		ID:          "ex-" + workflowID + "-" + customerID,
		WorkflowID:  workflowID,
		CustomerID:  customerID,
		Status:      models.ExecutionStatusRunning,
		StepResults: []models.StepRecord{},
		StartedAt:   time.Now().UTC(),
	}
	require.NoError(t, te.store.Executions().Create(context.Background(), execution))

	return execution
}

func optedInCustomer(id string) *models.Customer {
	return &models.Customer{
		ID:             id,
		Email:          id + "@example.com",
		Name:           "Customer " + id,
		EmailVerified:  true,
		MarketingOptIn: true,
	}
}

func emailStep(id, subject string) *models.Step {
	return &models.Step{ID: id, Kind: models.StepKindEmail, Email: &models.EmailStep{Subject: subject}}
}

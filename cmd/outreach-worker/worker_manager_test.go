package main

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/gangrun/outreach/pkg/eventbus"
	"github.com/gangrun/outreach/pkg/events"
	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock event bus for testing
type MockEventBus struct {
	publishedEvents []eventbus.Event
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	return nil
}

func (m *MockEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	m.publishedEvents = append(m.publishedEvents, event)

	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	return nil
}

func (m *MockEventBus) Close() error {
	return nil
}

func (m *MockEventBus) GenerateID() string {
	return "mock-event-id"
}

func newTestWorker(t *testing.T) (*WorkerManager, *file.Persistence, *MockEventBus) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	eventBus := &MockEventBus{}

	return NewWorkerManager("test-worker-1", persistence, eventBus, logger), persistence, eventBus
}

func TestNewWorkerManager(t *testing.T) {
	wm, persistence, eventBus := newTestWorker(t)

	assert.NotNil(t, wm)
	assert.Equal(t, "test-worker-1", wm.id)
	assert.Equal(t, persistence, wm.persistence)
	assert.Equal(t, eventBus, wm.eventBus)
	assert.NotNil(t, wm.evaluator)
	assert.NotNil(t, wm.driver)
	assert.NotNil(t, wm.logger)
}

func TestWorkerManager_HandleMarketingEvent_InvalidEvent(t *testing.T) {
	wm, _, _ := newTestWorker(t)

	err := wm.handleMarketingEvent(context.Background(), "invalid-event")

	// Should not return error but log it
	assert.NoError(t, err)
}

func TestWorkerManager_HandleMarketingEvent_TriggersMatchingWorkflow(t *testing.T) {
	wm, persistence, eventBus := newTestWorker(t)
	ctx := context.Background()

	customer := &models.Customer{
		ID:             "cust-1",
		Email:          "cust-1@example.com",
		EmailVerified:  true,
		MarketingOptIn: true,
	}
	require.NoError(t, persistence.Customers().Save(ctx, customer))

	workflow := &models.Workflow{
		ID:   "wf-1",
		Name: "welcome series",
		Trigger: models.Trigger{
			Kind:  models.TriggerKindEvent,
			Event: &models.EventTrigger{EventName: "user.registered"},
		},
		Steps: []*models.Step{
			{ID: "s1", Kind: models.StepKindEmail, Email: &models.EmailStep{Subject: "welcome"}},
		},
		IsActive: true,
	}
	require.NoError(t, persistence.Workflows().Save(ctx, workflow))

	event := &events.MarketingEventReceived{
		BaseEvent:  events.NewBaseEvent(events.MarketingEventReceivedEvent, ""),
		EventName:  "user.registered",
		CustomerID: "cust-1",
	}

	err := wm.handleMarketingEvent(ctx, event)
	require.NoError(t, err)

	require.Len(t, eventBus.publishedEvents, 1)

	triggered, ok := eventBus.publishedEvents[0].(events.WorkflowTriggered)
	require.True(t, ok)
	assert.Equal(t, "wf-1", triggered.WorkflowID)
	assert.Equal(t, "cust-1", triggered.CustomerID)

	execution, err := persistence.Executions().GetByID(ctx, triggered.ExecutionID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, execution.Status)
}

func TestWorkerManager_HandleWorkflowTriggered_InvalidEvent(t *testing.T) {
	wm, _, _ := newTestWorker(t)

	err := wm.handleWorkflowTriggered(context.Background(), "invalid-event")

	assert.NoError(t, err)
}

func TestWorkerManager_HandleWorkflowTriggered_MissingExecution(t *testing.T) {
	wm, _, _ := newTestWorker(t)

	baseEvent := events.NewBaseEvent(events.WorkflowTriggeredEvent, "wf-1")
	baseEvent.WorkerID = "test-worker-1"
	event := &events.WorkflowTriggered{
		BaseEvent:   baseEvent,
		ExecutionID: "non-existent-execution",
		CustomerID:  "cust-1",
	}

	// A missing execution was claimed by another worker or deleted; the
	// handler drops the event rather than retrying forever.
	err := wm.handleWorkflowTriggered(context.Background(), event)
	assert.NoError(t, err)
}

func TestWorkerManager_HandleExecutionResumeDue_InvalidEvent(t *testing.T) {
	wm, _, _ := newTestWorker(t)

	err := wm.handleExecutionResumeDue(context.Background(), "invalid-event")

	assert.NoError(t, err)
}

// Package events defines event types and structures for marketing and
// execution lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Kafka topic carrying all outreach events.
const Topic = "outreach.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Marketing ingest events.
	MarketingEventReceivedEvent EventType = "marketing.event.received"

	// Workflow lifecycle events.
	WorkflowTriggeredEvent EventType = "workflow.triggered"

	// Execution lifecycle events.
	ExecutionResumeDueEvent EventType = "execution.resume.due"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// MarketingEvent is a named business event observed somewhere in the shop,
// such as user_registered or order_placed. Customer metrics ride along in
// Data so trigger conditions can be evaluated without extra lookups.
type MarketingEventReceived struct {
	BaseEvent

	EventName  string         `json:"event_name"`
	CustomerID string         `json:"customer_id"`
	Data       map[string]any `json:"data,omitempty"`
}

func (m MarketingEventReceived) GetType() EventType {
	return MarketingEventReceivedEvent
}

type WorkflowTriggered struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	CustomerID  string         `json:"customer_id"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (w WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

// ExecutionResumeDue is published by the sweeper for each waiting execution
// whose wait deadline has passed.
type ExecutionResumeDue struct {
	BaseEvent

	ExecutionID string    `json:"execution_id"`
	DueAt       time.Time `json:"due_at"`
}

func (e ExecutionResumeDue) GetType() EventType {
	return ExecutionResumeDueEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID   string `json:"execution_id"`
	CustomerID    string `json:"customer_id"`
	StepsExecuted int    `json:"steps_executed"`
	DurationMs    int64  `json:"duration_ms"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	CustomerID  string `json:"customer_id"`
	StepID      string `json:"step_id,omitempty"`
	Error       string `json:"error"`
	DurationMs  int64  `json:"duration_ms"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

package models

import "time"

// ExecutionStatus is the lifecycle state of one workflow run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
)

// Execution is one run of a workflow for one customer. It is created at
// trigger time, mutated once per step, and terminal once COMPLETED or FAILED.
type Execution struct {
	ID           string          `json:"id"`
	WorkflowID   string          `json:"workflow_id"`
	CustomerID   string          `json:"customer_id"`
	TriggerData  map[string]any  `json:"trigger_data,omitempty"`
	Status       ExecutionStatus `json:"status"`
	CurrentStep  int             `json:"current_step"`
	StepResults  []StepRecord    `json:"step_results"`
	WaitUntil    *time.Time      `json:"wait_until,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	// Version guards concurrent read-modify-write of the same execution:
	// updates must match the stored version and increment it.
	Version     int64      `json:"version"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// StepRecord is one entry in the append-only step audit log.
type StepRecord struct {
	StepID     string     `json:"step_id"`
	Result     StepResult `json:"result"`
	ExecutedAt time.Time  `json:"executed_at"`
}

// Terminal reports whether the execution can no longer change.
func (e *Execution) Terminal() bool {
	return e.Status == ExecutionStatusCompleted || e.Status == ExecutionStatusFailed
}

// StepResult describes the outcome of a single step execution. Exactly one
// of the three shapes applies: a same-tick status, an explicit next-step
// jump, or a wait suspension.
type StepResult struct {
	Status       StepStatus     `json:"status,omitempty"`
	Reason       string         `json:"reason,omitempty"`
	Error        string         `json:"error,omitempty"`
	ConditionMet *bool          `json:"condition_met,omitempty"`
	NextStep     string         `json:"next_step,omitempty"`
	Wait         bool           `json:"wait,omitempty"`
	WaitUntil    *time.Time     `json:"wait_until,omitempty"`
	Output       map[string]any `json:"output,omitempty"`
}

// StepStatus labels a same-tick step outcome.
type StepStatus string

const (
	StepStatusSent      StepStatus = "sent"
	StepStatusSkipped   StepStatus = "skipped"
	StepStatusSuccess   StepStatus = "success"
	StepStatusError     StepStatus = "error"
	StepStatusEvaluated StepStatus = "evaluated"
)

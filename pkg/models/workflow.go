// Package models defines the core domain models for the marketing automation engine.
package models

import (
	"errors"
	"fmt"
	"time"
)

// Workflow is a named automation: a trigger plus an ordered list of steps.
// Deactivation is a flag flip; definitions are never versioned.
type Workflow struct {
	ID          string     `json:"id"`
	Name        string     `json:"name" validate:"required,min=3"`
	Description string     `json:"description,omitempty"`
	Trigger     Trigger    `json:"trigger"`
	Steps       []*Step    `json:"steps"`
	SegmentID   *string    `json:"segment_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	// LastScheduledRunAt records the most recent schedule-trigger start so the
	// sweeper never starts the same due slot twice across restarts.
	LastScheduledRunAt *time.Time `json:"last_scheduled_run_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Validate checks structural invariants: valid trigger, valid steps, unique
// step IDs, and condition branch targets that resolve within the workflow.
func (w *Workflow) Validate() error {
	if err := w.Trigger.Validate(); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}

	seen := make(map[string]bool, len(w.Steps))

	for _, step := range w.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %q: %w", step.ID, err)
		}

		if seen[step.ID] {
			return fmt.Errorf("step %q: %w", step.ID, ErrDuplicateStepID)
		}

		seen[step.ID] = true
	}

	for _, step := range w.Steps {
		if step.Kind != StepKindCondition || step.Condition.Branches == nil {
			continue
		}

		for _, target := range []string{step.Condition.Branches.True, step.Condition.Branches.False} {
			if target != "" && !seen[target] {
				return fmt.Errorf("step %q: branch target %q: %w", step.ID, target, ErrUnknownBranchTarget)
			}
		}
	}

	return nil
}

// StepByID returns the step with the given ID and its index in array order.
func (w *Workflow) StepByID(id string) (*Step, int, bool) {
	for i, step := range w.Steps {
		if step.ID == id {
			return step, i, true
		}
	}

	return nil, 0, false
}

var (
	ErrDuplicateStepID     = errors.New("duplicate step id")
	ErrUnknownBranchTarget = errors.New("branch target not found in workflow")
)

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gangrun/outreach/pkg/eventbus"
	"github.com/gangrun/outreach/pkg/events"
	"github.com/gangrun/outreach/pkg/persistence"
)

// Scheduler resumes suspended executions. It keeps no in-process timers: the
// wait deadline lives on the execution row, and Sweep periodically publishes
// resume events for every deadline that has passed. A restart loses nothing.
type Scheduler struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventPublisher
	logger      *slog.Logger
}

func NewScheduler(p persistence.Persistence, bus eventbus.EventPublisher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		persistence: p,
		eventBus:    bus,
		logger:      logger.With("module", "continuation_scheduler"),
	}
}

// Schedule arranges resumption of a waiting execution. A deadline already in
// the past resumes immediately; a future one is left to the sweep. Duplicate
// resume events are harmless because the driver no-ops on executions that are
// not waiting anymore.
func (s *Scheduler) Schedule(ctx context.Context, executionID string, waitUntil time.Time) error {
	if time.Until(waitUntil) > 0 {
		return nil
	}

	return s.publishResume(ctx, executionID, waitUntil)
}

// Sweep publishes a resume event for every running execution whose wait
// deadline has passed. Failures are isolated per execution so one bad row
// cannot block the rest of the sweep.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) (int, error) {
	due, err := s.persistence.Executions().ListDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due executions: %w", err)
	}

	resumed := 0

	for _, execution := range due {
		err := s.publishResume(ctx, execution.ID, *execution.WaitUntil)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to publish resume event",
				"execution_id", execution.ID, "error", err)

			continue
		}

		resumed++
	}

	return resumed, nil
}

func (s *Scheduler) publishResume(ctx context.Context, executionID string, dueAt time.Time) error {
	event := events.ExecutionResumeDue{
		BaseEvent:   events.NewBaseEvent(events.ExecutionResumeDueEvent, ""),
		ExecutionID: executionID,
		DueAt:       dueAt,
	}

	return s.eventBus.Publish(ctx, executionID, event)
}

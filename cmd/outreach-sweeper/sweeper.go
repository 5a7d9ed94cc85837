package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gangrun/outreach/pkg/carts"
	"github.com/gangrun/outreach/pkg/engine"
	"github.com/gangrun/outreach/pkg/eventbus"
	"github.com/gangrun/outreach/pkg/models"
	"github.com/gangrun/outreach/pkg/persistence"
	"github.com/gangrun/outreach/pkg/segments"
	"github.com/robfig/cron/v3"
)

// Sweeper runs the periodic jobs that keep the engine moving without any
// in-process timers: resuming due waits, starting scheduled workflows, and
// scanning for abandoned carts and inactive customers.
type Sweeper struct {
	logger        *slog.Logger
	persistence   persistence.Persistence
	scheduler     *engine.Scheduler
	evaluator     *engine.Evaluator
	notifier      *engine.Notifier
	carts         *carts.Store
	cron          *cron.Cron
	abandonAfter  time.Duration
	inactiveAfter time.Duration
}

func NewSweeper(
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	cartStore *carts.Store,
	logger *slog.Logger,
	abandonAfter time.Duration,
	inactiveAfter time.Duration,
) *Sweeper {
	resolver := segments.NewResolver(persistence, logger)

	return &Sweeper{
		logger:        logger.With("module", "outreach-sweeper"),
		persistence:   persistence,
		scheduler:     engine.NewScheduler(persistence, eventBus, logger),
		evaluator:     engine.NewEvaluator(persistence, resolver, eventBus, logger),
		notifier:      engine.NewNotifier(eventBus, logger),
		carts:         cartStore,
		abandonAfter:  abandonAfter,
		inactiveAfter: inactiveAfter,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting sweeper",
		"abandon_after", s.abandonAfter, "inactive_after", s.inactiveAfter)

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := s.cron.AddFunc("* * * * *", func() { s.everyMinute(ctx) })
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc("@hourly", func() { s.scanAbandonedCarts(ctx) })
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc("@daily", func() { s.scanInactiveCustomers(ctx) })
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Sweeper started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	s.logger.InfoContext(ctx, "Shutting down sweeper...")

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()

	return nil
}

func (s *Sweeper) everyMinute(ctx context.Context) {
	now := time.Now().UTC()

	resumed, err := s.scheduler.Sweep(ctx, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to sweep due executions", "error", err)
	} else if resumed > 0 {
		s.logger.InfoContext(ctx, "Resumed due executions", "count", resumed)
	}

	s.startDueScheduledWorkflows(ctx, now)
}

// startDueScheduledWorkflows starts every active schedule-trigger workflow
// whose next run time has passed, recording LastScheduledRunAt so a restart
// never replays a slot.
func (s *Sweeper) startDueScheduledWorkflows(ctx context.Context, now time.Time) {
	workflows, err := s.persistence.Workflows().GetActive(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list active workflows", "error", err)

		return
	}

	for _, workflow := range workflows {
		dueAt, due := scheduleDueAt(workflow, now)
		if !due {
			continue
		}

		logger := s.logger.With("workflow_id", workflow.ID, "due_at", dueAt)

		started, err := s.evaluator.StartScheduled(ctx, workflow)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to start scheduled workflow", "error", err)

			continue
		}

		logger.InfoContext(ctx, "Started scheduled workflow", "executions", started)

		workflow.LastScheduledRunAt = &dueAt

		err = s.persistence.Workflows().Save(ctx, workflow)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to record scheduled run", "error", err)
		}
	}
}

// scheduleDueAt computes the next due time for a schedule-trigger workflow
// and reports whether it has passed. Immediate and delay modes fire once per
// activation; recurring mode advances along the cron from the last run.
func scheduleDueAt(workflow *models.Workflow, now time.Time) (time.Time, bool) {
	if workflow.Trigger.Kind != models.TriggerKindSchedule || workflow.Trigger.Schedule == nil {
		return time.Time{}, false
	}

	if workflow.ActivatedAt == nil {
		return time.Time{}, false
	}

	schedule := workflow.Trigger.Schedule

	switch schedule.Mode {
	case models.ScheduleModeImmediate, models.ScheduleModeDelay:
		if workflow.LastScheduledRunAt != nil {
			return time.Time{}, false
		}

		dueAt := *workflow.ActivatedAt
		if schedule.Mode == models.ScheduleModeDelay {
			dueAt = dueAt.Add(time.Duration(schedule.DelayMinutes) * time.Minute)
		}

		return dueAt, !dueAt.After(now)
	case models.ScheduleModeRecurring:
		spec, err := cron.ParseStandard(schedule.Cron)
		if err != nil {
			return time.Time{}, false
		}

		after := *workflow.ActivatedAt
		if workflow.LastScheduledRunAt != nil {
			after = *workflow.LastScheduledRunAt
		}

		dueAt := spec.Next(after)

		return dueAt, !dueAt.After(now)
	default:
		return time.Time{}, false
	}
}

func (s *Sweeper) scanAbandonedCarts(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.abandonAfter)

	sessions, err := s.carts.Abandoned(ctx, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to scan abandoned carts", "error", err)

		return
	}

	for _, session := range sessions {
		s.notifier.TriggerCartAbandoned(ctx, session.CustomerID, map[string]any{
			"items":      session.Items,
			"updated_at": session.UpdatedAt,
		})

		err := s.carts.Clear(ctx, session.CustomerID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to clear abandoned cart",
				"customer_id", session.CustomerID, "error", err)
		}
	}

	if len(sessions) > 0 {
		s.logger.InfoContext(ctx, "Flagged abandoned carts", "count", len(sessions))
	}
}

func (s *Sweeper) scanInactiveCustomers(ctx context.Context) {
	now := time.Now().UTC()
	cutoff := now.Add(-s.inactiveAfter)

	customers, err := s.persistence.Customers().ListInactiveSince(ctx, cutoff)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to scan inactive customers", "error", err)

		return
	}

	for _, customer := range customers {
		stats, err := s.persistence.Customers().OrderStats(ctx, customer.ID)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to load order stats",
				"customer_id", customer.ID, "error", err)

			continue
		}

		if stats.LastOrderAt == nil {
			continue
		}

		days := int(now.Sub(*stats.LastOrderAt).Hours() / 24)
		s.notifier.TriggerInactiveCustomer(ctx, customer.ID, days)
	}

	if len(customers) > 0 {
		s.logger.InfoContext(ctx, "Flagged inactive customers", "count", len(customers))
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gangrun/outreach/pkg/engine"
	"github.com/gangrun/outreach/pkg/eventbus"
	"github.com/gangrun/outreach/pkg/events"
	"github.com/gangrun/outreach/pkg/otelhelper"
	"github.com/gangrun/outreach/pkg/persistence"
	"github.com/gangrun/outreach/pkg/segments"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// WorkerManager consumes marketing and execution lifecycle events and hands
// them to the trigger evaluator and execution driver.
type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	evaluator   *engine.Evaluator
	driver      *engine.Driver
	tracer      trace.Tracer
}

func NewWorkerManager(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *WorkerManager {
	resolver := segments.NewResolver(persistence, logger)
	evaluator := engine.NewEvaluator(persistence, resolver, eventBus, logger)
	executor := engine.NewExecutor(persistence, logger)
	scheduler := engine.NewScheduler(persistence, eventBus, logger)
	driver := engine.NewDriver(persistence, executor, scheduler, eventBus, logger)

	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "outreach-worker", "worker_id", id),
		persistence: persistence,
		eventBus:    eventBus,
		evaluator:   evaluator,
		driver:      driver,
		tracer:      noop.NewTracerProvider().Tracer("outreach-worker"),
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager", "worker_id", w.id)

	tracer, err := otelhelper.NewTracer(ctx, "outreach-worker")
	if err != nil {
		return err
	}

	w.tracer = tracer

	err = w.eventBus.Handle(events.MarketingEventReceivedEvent, w.handleMarketingEvent)
	if err != nil {
		return err
	}

	err = w.eventBus.Handle(events.WorkflowTriggeredEvent, w.handleWorkflowTriggered)
	if err != nil {
		return err
	}

	err = w.eventBus.Handle(events.ExecutionResumeDueEvent, w.handleExecutionResumeDue)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *WorkerManager) handleMarketingEvent(ctx context.Context, event any) error {
	marketingEvent, ok := event.(*events.MarketingEventReceived)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for MarketingEventReceived")

		return nil
	}

	spanCtx, span := otelhelper.StartSpan(ctx, w.tracer, "worker.marketing_event evaluate",
		attribute.String(otelhelper.EventNameKey, marketingEvent.EventName),
		attribute.String(otelhelper.CustomerIDKey, marketingEvent.CustomerID),
		attribute.String(otelhelper.WorkerIDKey, w.id),
	)
	defer span.End()

	logger := w.logger.With(
		"event_name", marketingEvent.EventName,
		"customer_id", marketingEvent.CustomerID,
		"event_id", marketingEvent.ID,
	)
	logger.InfoContext(spanCtx, "Processing marketing event")

	w.evaluator.HandleEvent(spanCtx, marketingEvent.EventName, marketingEvent.CustomerID, marketingEvent.Data)

	return nil
}

func (w *WorkerManager) handleWorkflowTriggered(ctx context.Context, event any) error {
	triggeredEvent, ok := event.(*events.WorkflowTriggered)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for WorkflowTriggered")

		return nil
	}

	spanCtx, span := otelhelper.StartSpan(ctx, w.tracer, "worker.execution run",
		attribute.String(otelhelper.WorkflowIDKey, triggeredEvent.WorkflowID),
		attribute.String(otelhelper.ExecutionIDKey, triggeredEvent.ExecutionID),
		attribute.String(otelhelper.CustomerIDKey, triggeredEvent.CustomerID),
		attribute.String(otelhelper.WorkerIDKey, w.id),
	)
	defer span.End()

	logger := w.logger.With(
		"workflow_id", triggeredEvent.WorkflowID,
		"execution_id", triggeredEvent.ExecutionID,
		"event_id", triggeredEvent.ID,
	)
	logger.InfoContext(spanCtx, "Processing workflow triggered event")

	err := w.driver.Run(spanCtx, triggeredEvent.ExecutionID)
	if err != nil {
		logger.ErrorContext(spanCtx, "Failed to run execution", "error", err)
		otelhelper.SetError(span, err)

		return err
	}

	return nil
}

func (w *WorkerManager) handleExecutionResumeDue(ctx context.Context, event any) error {
	resumeEvent, ok := event.(*events.ExecutionResumeDue)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for ExecutionResumeDue")

		return nil
	}

	spanCtx, span := otelhelper.StartSpan(ctx, w.tracer, "worker.execution resume",
		attribute.String(otelhelper.ExecutionIDKey, resumeEvent.ExecutionID),
		attribute.String(otelhelper.WorkerIDKey, w.id),
	)
	defer span.End()

	logger := w.logger.With(
		"execution_id", resumeEvent.ExecutionID,
		"event_id", resumeEvent.ID,
	)
	logger.InfoContext(spanCtx, "Resuming execution past wait deadline")

	err := w.driver.Run(spanCtx, resumeEvent.ExecutionID)
	if err != nil {
		logger.ErrorContext(spanCtx, "Failed to resume execution", "error", err)
		otelhelper.SetError(span, err)

		return err
	}

	return nil
}

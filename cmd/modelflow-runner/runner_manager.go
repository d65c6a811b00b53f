package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelflow/modelflow/pkg/contextaccess"
	"github.com/modelflow/modelflow/pkg/eventbus"
	"github.com/modelflow/modelflow/pkg/events"
	"github.com/modelflow/modelflow/pkg/orchestration"
	"github.com/modelflow/modelflow/pkg/persistence"
	"github.com/modelflow/modelflow/pkg/registry"
	"github.com/modelflow/modelflow/pkg/scheduler"
)

// RunnerManager hosts the orchestration engine and the cron scheduler
// that feeds it, and mirrors orchestration lifecycle events to the log.
type RunnerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	stateStore  orchestration.Store
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	engineOpts  []orchestration.Option
}

func NewRunnerManager(
	id string,
	persistence persistence.Persistence,
	stateStore orchestration.Store,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	registry *registry.Registry,
	engineOpts ...orchestration.Option,
) *RunnerManager {
	return &RunnerManager{
		id:          id,
		logger:      logger.With("module", "modelflow-runner", "runner_id", id),
		persistence: persistence,
		stateStore:  stateStore,
		registry:    registry,
		eventBus:    eventBus,
		engineOpts:  engineOpts,
	}
}

func (r *RunnerManager) Start(ctx context.Context) error {
	r.logger.InfoContext(ctx, "Starting runner manager", "runner_id", r.id)

	opts := append([]orchestration.Option{orchestration.WithEventBus(r.eventBus)}, r.engineOpts...)

	engine := orchestration.NewEngine(
		r.stateStore,
		registry.NewExecutor(r.registry, r.logger),
		contextaccess.NewMemoryService(),
		r.logger,
		opts...,
	)

	err := r.eventBus.Handle(events.OrchestrationCompletedEvent, r.handleOrchestrationCompleted)
	if err != nil {
		return err
	}

	err = r.eventBus.Handle(events.OrchestrationFailedEvent, r.handleOrchestrationFailed)
	if err != nil {
		return err
	}

	err = r.eventBus.Subscribe(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	sched := scheduler.NewScheduler(r.persistence, engine, r.logger)

	err = sched.Start(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to start scheduler", "error", err)

		return err
	}

	r.logger.InfoContext(ctx, "Runner started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	r.logger.InfoContext(ctx, "Shutting down runner...")

	sched.Stop()

	return nil
}

func (r *RunnerManager) handleOrchestrationCompleted(ctx context.Context, event any) error {
	completed, ok := event.(*events.OrchestrationCompleted)
	if !ok {
		r.logger.ErrorContext(ctx, "Invalid event type for OrchestrationCompleted")

		return nil
	}

	logger := r.logger.With("orchestration_id", completed.OrchestrationID)
	logger.InfoContext(ctx, "Orchestration completed",
		"duration", completed.Duration,
		"completed_groups", len(completed.CompletedGroups),
		"failed_groups", len(completed.FailedGroups))

	state, err := r.stateStore.Get(ctx, completed.OrchestrationID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load orchestration state", "error", err)

		return err
	}

	persistErr := r.persistence.AppendResults(ctx, completed.OrchestrationID, state.Results)
	if persistErr != nil {
		logger.ErrorContext(ctx, "Failed to persist orchestration results", "error", persistErr)

		return persistErr
	}

	return nil
}

func (r *RunnerManager) handleOrchestrationFailed(ctx context.Context, event any) error {
	failed, ok := event.(*events.OrchestrationFailed)
	if !ok {
		r.logger.ErrorContext(ctx, "Invalid event type for OrchestrationFailed")

		return nil
	}

	r.logger.ErrorContext(ctx, "Orchestration failed",
		"orchestration_id", failed.OrchestrationID,
		"error", failed.Error)

	return nil
}

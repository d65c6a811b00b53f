// Package scheduler starts orchestrations for function models on their cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/persistence"
	"github.com/modelflow/modelflow/pkg/plan"
	"github.com/robfig/cron/v3"
)

// PlanStarter is the slice of the orchestration engine the scheduler needs.
type PlanStarter interface {
	StartExecutionAsync(ctx context.Context, executionPlan *plan.ExecutionPlan) (string, error)
}

// Scheduler watches published models carrying a schedule expression and
// launches an orchestration per container on every tick.
type Scheduler struct {
	mu          sync.Mutex
	persistence persistence.Persistence
	engine      PlanStarter
	logger      *slog.Logger
	cron        *cron.Cron
	entries     map[string]cron.EntryID // model id -> cron entry
}

func NewScheduler(p persistence.Persistence, engine PlanStarter, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		persistence: p,
		engine:      engine,
		logger:      logger.With("module", "scheduler"),
		cron:        cron.New(),
		entries:     make(map[string]cron.EntryID),
	}
}

// Start loads the scheduled models and begins ticking.
func (s *Scheduler) Start(ctx context.Context) error {
	err := s.Reload(ctx)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.InfoContext(ctx, "Scheduler started", "scheduled_models", len(s.entries))

	return nil
}

// Reload re-reads the model set and reconciles the cron entries. Models that
// lost their schedule or stopped being executable are descheduled.
func (s *Scheduler) Reload(ctx context.Context) error {
	allModels, err := s.persistence.Models(ctx)
	if err != nil {
		return fmt.Errorf("failed to load models: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(allModels))

	for _, model := range allModels {
		expr, ok := model.ScheduleExpression()
		if !ok || !model.IsExecutable() {
			continue
		}

		seen[model.ID] = true

		if _, scheduled := s.entries[model.ID]; scheduled {
			continue
		}

		scheduleErr := s.schedule(ctx, model, expr)
		if scheduleErr != nil {
			s.logger.WarnContext(ctx, "Skipping model with invalid schedule",
				"model_id", model.ID, "schedule", expr, "error", scheduleErr)
		}
	}

	for modelID, entryID := range s.entries {
		if !seen[modelID] {
			s.cron.Remove(entryID)
			delete(s.entries, modelID)
			s.logger.InfoContext(ctx, "Descheduled model", "model_id", modelID)
		}
	}

	return nil
}

// Stop halts the cron loop and waits for in-flight jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// schedule registers a cron entry for the model. Caller holds the lock.
func (s *Scheduler) schedule(ctx context.Context, model *models.FunctionModel, expr string) error {
	_, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	modelID := model.ID

	entryID, err := s.cron.AddFunc(expr, func() {
		s.tick(context.WithoutCancel(ctx), modelID)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job for model %s: %w", modelID, err)
	}

	s.entries[modelID] = entryID
	s.logger.InfoContext(ctx, "Scheduled model", "model_id", modelID, "schedule", expr)

	return nil
}

// tick re-reads the model and starts one orchestration per container that
// owns action nodes. The model is re-read so edits between ticks take effect.
func (s *Scheduler) tick(ctx context.Context, modelID string) {
	logger := s.logger.With("model_id", modelID)

	model, err := s.persistence.ModelByID(ctx, modelID)
	if err != nil {
		logger.Error("Failed to load scheduled model", "error", err)

		return
	}

	if !model.IsExecutable() {
		logger.Warn("Scheduled model is no longer executable", "status", model.Status)

		return
	}

	for _, node := range model.Nodes {
		if node.Kind != models.NodeKindContainer {
			continue
		}

		actions := model.ActionsFor(node.ID)
		if len(actions) == 0 {
			continue
		}

		executionPlan, planErr := plan.Create(node.ID, actions)
		if planErr != nil {
			logger.Error("Failed to build execution plan", "container_id", node.ID, "error", planErr)

			continue
		}

		orchestrationID, startErr := s.engine.StartExecutionAsync(ctx, executionPlan)
		if startErr != nil {
			logger.Error("Failed to start orchestration", "container_id", node.ID, "error", startErr)

			continue
		}

		logger.Info("Started scheduled orchestration",
			"container_id", node.ID, "orchestration_id", orchestrationID)
	}
}

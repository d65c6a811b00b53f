package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelflow/modelflow/pkg/contextaccess"
	"github.com/modelflow/modelflow/pkg/models"
)

// Executor runs action nodes through registered handlers. It satisfies the
// engine's execution primitive: handler errors are folded into a failed
// result rather than returned, so an unknown type or a handler fault never
// aborts sibling actions.
type Executor struct {
	registry *Registry
	logger   *slog.Logger
}

func NewExecutor(registry *Registry, logger *slog.Logger) *Executor {
	return &Executor{
		registry: registry,
		logger:   logger.With("module", "action_executor"),
	}
}

func (e *Executor) ExecuteAction(ctx context.Context, action *models.ActionNode, snapshot *contextaccess.Snapshot) (*models.ExecutionResult, error) {
	started := time.Now().UTC()
	logger := e.logger.With("action_id", action.ID, "action_type", action.Type)

	handler, err := e.registry.CreateHandler(action.Type, action.Config)
	if err != nil {
		logger.WarnContext(ctx, "Failed to build action handler", "error", err)

		return failure(action.ID, started, err), nil
	}

	executionCtx := models.ExecutionContext{
		ContainerID: action.ParentNodeID,
		ActionID:    action.ID,
	}

	if snapshot != nil {
		executionCtx.ContextData = make(map[string]any, len(snapshot.Data))
		for key, value := range snapshot.Data {
			executionCtx.ContextData[key] = value.Interface()
		}
	}

	output, err := handler.Execute(ctx, executionCtx, logger)
	if err != nil {
		logger.WarnContext(ctx, "Action handler failed", "error", err)

		return failure(action.ID, started, err), nil
	}

	return &models.ExecutionResult{
		ActionID:  action.ID,
		Success:   true,
		Output:    output,
		Duration:  time.Since(started),
		Timestamp: started,
	}, nil
}

func failure(actionID string, started time.Time, err error) *models.ExecutionResult {
	return &models.ExecutionResult{
		ActionID:  actionID,
		Success:   false,
		Duration:  time.Since(started),
		Timestamp: started,
		Error:     err.Error(),
	}
}

// Package protocol defines the contracts between the orchestration engine and
// pluggable action handlers.
package protocol

import (
	"context"
	"log/slog"

	"github.com/modelflow/modelflow/pkg/models"
)

// ActionHandler executes one kind of action node. The returned map becomes
// the execution result's output.
type ActionHandler interface {
	Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error)
}

// ActionHandlerFactory builds handlers from node configuration. Schema
// describes the configuration as JSON schema; the registry validates configs
// against it before Create runs.
type ActionHandlerFactory interface {
	ID() string
	Schema() map[string]any
	Create(config map[string]any) (ActionHandler, error)
}

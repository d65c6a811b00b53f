// Package log provides an action handler that writes a structured log line.
package log

import (
	"context"
	"log/slog"

	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/protocol"
	"github.com/modelflow/modelflow/pkg/template"
)

type Handler struct {
	message string
	level   string
}

func NewHandler(config map[string]any) *Handler {
	message, _ := config["message"].(string)

	level, _ := config["level"].(string)
	if level == "" {
		level = "info"
	}

	return &Handler{message: message, level: level}
}

func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "log")

	message, err := template.RenderString(h.message, &executionCtx)
	if err != nil {
		return nil, err
	}

	switch h.level {
	case "debug":
		logger.DebugContext(ctx, message)
	case "warn", "warning":
		logger.WarnContext(ctx, message)
	case "error":
		logger.ErrorContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}

	return map[string]any{
		"message": message,
		"level":   h.level,
	}, nil
}

type HandlerFactory struct{}

func NewHandlerFactory() *HandlerFactory {
	return &HandlerFactory{}
}

func (*HandlerFactory) ID() string {
	return "log"
}

func (*HandlerFactory) Create(config map[string]any) (protocol.ActionHandler, error) {
	if config == nil {
		config = map[string]any{}
	}

	return NewHandler(config), nil
}

func (*HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "The message to log. Supports templating for dynamic content.",
			},
			"level": map[string]any{
				"type":        "string",
				"description": "Log level for the message",
				"default":     "info",
				"enum":        []string{"debug", "info", "warn", "warning", "error"},
			},
		},
		"required": []string{"message"},
	}
}

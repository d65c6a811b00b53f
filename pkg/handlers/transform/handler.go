// Package transform provides an action handler that reshapes context data
// with a template expression.
package transform

import (
	"context"
	"log/slog"

	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/protocol"
	"github.com/modelflow/modelflow/pkg/template"
)

type Handler struct {
	Expression string
}

func NewHandler(config map[string]any) (*Handler, error) {
	expression, _ := config["expression"].(string)

	return &Handler{Expression: expression}, nil
}

func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("action_type", "transform")
	logger.DebugContext(ctx, "Executing transform", "expression", h.Expression)

	result, err := template.RenderWithContext(h.Expression, &executionCtx)
	if err != nil {
		return nil, err
	}

	return map[string]any{"data": result}, nil
}

type HandlerFactory struct{}

func NewHandlerFactory() *HandlerFactory {
	return &HandlerFactory{}
}

func (*HandlerFactory) ID() string {
	return "transform"
}

func (*HandlerFactory) Create(config map[string]any) (protocol.ActionHandler, error) {
	return NewHandler(config)
}

func (*HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"expression": map[string]any{
				"type":        "string",
				"format":      "code",
				"description": "Template expression applied to the node's context data.",
				"examples": []string{
					"{{.context.order_total}}",
					"{\"doubled\": {{.context.count}}}",
				},
			},
		},
		"required": []string{"expression"},
	}
}

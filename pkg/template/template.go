// Package template renders expressions embedded in action node configuration
// against the node's execution context.
package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/modelflow/modelflow/pkg/models"
)

// RenderWithContext renders the input against the execution context's data.
func RenderWithContext(input string, executionCtx *models.ExecutionContext) (any, error) {
	data := map[string]any{
		"context":  executionCtx.ContextData,
		"metadata": executionCtx.Metadata,
		"execution": map[string]any{
			"orchestration_id": executionCtx.OrchestrationID,
			"container_id":     executionCtx.ContainerID,
			"action_id":        executionCtx.ActionID,
		},
	}

	return Render(input, data)
}

// Render executes the template string against data. Results that look like
// JSON, numbers or booleans are decoded; everything else stays a string.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.
		New("render").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template %q: %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		jsonErr := json.Unmarshal([]byte(result), &jsonResult)
		if jsonErr == nil {
			return jsonResult, nil
		}

		return nil, fmt.Errorf("failed to parse json %q: %w", result, jsonErr)
	}

	if num, numErr := strconv.ParseFloat(result, 64); numErr == nil {
		return num, nil
	}

	if b, boolErr := strconv.ParseBool(result); boolErr == nil {
		return b, nil
	}

	return result, nil
}

// RenderString renders the input and coerces the result back to a string.
func RenderString(input string, executionCtx *models.ExecutionContext) (string, error) {
	rendered, err := RenderWithContext(input, executionCtx)
	if err != nil {
		return "", err
	}

	switch v := rendered.(type) {
	case string:
		return v, nil
	default:
		encoded, encodeErr := json.Marshal(v)
		if encodeErr != nil {
			return fmt.Sprintf("%v", v), nil
		}

		return string(encoded), nil
	}
}

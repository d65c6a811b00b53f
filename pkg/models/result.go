package models

import "time"

// ExecutionResult records the outcome of one action execution attempt.
type ExecutionResult struct {
	ActionID  string         `json:"action_id"`
	Success   bool           `json:"success"`
	Output    map[string]any `json:"output,omitempty"`
	Duration  time.Duration  `json:"duration"`
	Timestamp time.Time      `json:"timestamp"`
	Error     string         `json:"error,omitempty"`
}

// Clone returns a copy whose Output shares no memory with the receiver,
// including nested maps and slices.
func (r ExecutionResult) Clone() ExecutionResult {
	r.Output = cloneOutput(r.Output)

	return r
}

func cloneOutput(output map[string]any) map[string]any {
	if output == nil {
		return nil
	}

	cloned := make(map[string]any, len(output))
	for key, value := range output {
		cloned[key] = cloneOutputValue(value)
	}

	return cloned
}

func cloneOutputValue(value any) any {
	switch value := value.(type) {
	case map[string]any:
		return cloneOutput(value)
	case []any:
		cloned := make([]any, len(value))
		for i, item := range value {
			cloned[i] = cloneOutputValue(item)
		}

		return cloned
	default:
		return value
	}
}

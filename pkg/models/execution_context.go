package models

// ExecutionContext carries everything an action handler may consult while
// executing one action node.
type ExecutionContext struct {
	OrchestrationID string         `json:"orchestration_id"`
	ContainerID     string         `json:"container_id"`
	ActionID        string         `json:"action_id"`
	ContextData     map[string]any `json:"context_data,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

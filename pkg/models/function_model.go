package models

import "time"

// ModelStatus represents the lifecycle state of a function model.
type ModelStatus string

const (
	ModelStatusDraft       ModelStatus = "draft"       // Editable, not executable
	ModelStatusPublished   ModelStatus = "published"   // Current active, executable
	ModelStatusUnpublished ModelStatus = "unpublished" // Historical, not executable
)

// NodeKind represents the kind of a structural node in a function model.
type NodeKind string

const (
	NodeKindInput     NodeKind = "input"     // Input boundary
	NodeKindOutput    NodeKind = "output"    // Output boundary
	NodeKindProcess   NodeKind = "process"   // Processing stage
	NodeKindContainer NodeKind = "container" // Sub-model container owning action nodes
)

// ModelNode is a structural node in a function model graph. Executable work
// lives in ActionNode; ModelNode carries the authoring-side topology.
type ModelNode struct {
	ID        string         `json:"id"        validate:"required"`
	Kind      NodeKind       `json:"kind"      validate:"required,oneof=input output process container"`
	Name      string         `json:"name"      validate:"required,min=1"`
	ParentID  *string        `json:"parent_id,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
	PositionX int            `json:"position_x"`
	PositionY int            `json:"position_y"`
}

// FunctionModel represents a directed graph of typed nodes describing a
// business or automation workflow.
type FunctionModel struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Status      ModelStatus    `json:"status"      validate:"required"`
	Nodes       []*ModelNode   `json:"nodes"`
	Actions     []*ActionNode  `json:"actions"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Owner       string         `json:"owner"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}

// IsExecutable reports whether orchestrations may be started from this model.
func (m *FunctionModel) IsExecutable() bool {
	return m.Status == ModelStatusPublished && m.DeletedAt == nil
}

// ActionsFor returns the action nodes owned by the given container, in
// declaration order.
func (m *FunctionModel) ActionsFor(containerID string) []*ActionNode {
	actions := make([]*ActionNode, 0, len(m.Actions))

	for _, action := range m.Actions {
		if action.ParentNodeID == containerID {
			actions = append(actions, action)
		}
	}

	return actions
}

// ContainerByID looks up a container node by identifier.
func (m *FunctionModel) ContainerByID(id string) (*ModelNode, bool) {
	for _, node := range m.Nodes {
		if node.ID == id && node.Kind == NodeKindContainer {
			return node, true
		}
	}

	return nil, false
}

// ScheduleExpression returns the cron expression attached to the model's
// metadata, if any.
func (m *FunctionModel) ScheduleExpression() (string, bool) {
	raw, ok := m.Metadata["schedule"]
	if !ok {
		return "", false
	}

	expr, ok := raw.(string)
	if !ok || expr == "" {
		return "", false
	}

	return expr, true
}

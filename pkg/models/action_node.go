// Package models defines the core domain models for function-model orchestration
package models

import "fmt"

// ExecutionMode controls how the members of an execution group are scheduled.
type ExecutionMode string

const (
	ExecutionModeSequential  ExecutionMode = "sequential"  // Members run one after another, in order
	ExecutionModeParallel    ExecutionMode = "parallel"    // Members fan out across workers and join at the group boundary
	ExecutionModeConditional ExecutionMode = "conditional" // Members run sequentially, gated by a per-member predicate
)

// ActionStatus represents the lifecycle state of an action node.
type ActionStatus string

const (
	ActionStatusActive    ActionStatus = "active"
	ActionStatusExecuting ActionStatus = "executing"
	ActionStatusRetrying  ActionStatus = "retrying"
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusFailed    ActionStatus = "failed"
	ActionStatusSkipped   ActionStatus = "skipped"
)

// actionTransitions lists the legal status transitions. Completed and skipped
// are terminal.
var actionTransitions = map[ActionStatus][]ActionStatus{
	ActionStatusActive:    {ActionStatusExecuting, ActionStatusSkipped},
	ActionStatusExecuting: {ActionStatusCompleted, ActionStatusFailed},
	ActionStatusFailed:    {ActionStatusRetrying},
	ActionStatusRetrying:  {ActionStatusExecuting, ActionStatusCompleted, ActionStatusFailed},
}

// InvalidTransitionError reports a status change the lifecycle does not allow.
type InvalidTransitionError struct {
	NodeID string
	From   ActionStatus
	To     ActionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition for action %s: %s -> %s", e.NodeID, e.From, e.To)
}

// ActionNode is an executable unit of work belonging to a container node.
// Nodes are value-like: the only sanctioned mutation path is WithStatus,
// which returns a new value.
type ActionNode struct {
	ID                string         `json:"id"                         validate:"required"`
	ParentNodeID      string         `json:"parent_node_id"             validate:"required"`
	Name              string         `json:"name"`
	Type              string         `json:"type"                       validate:"required"`
	Config            map[string]any `json:"config,omitempty"`
	ExecutionOrder    int            `json:"execution_order"`
	Priority          int            `json:"priority"`
	ExecutionMode     ExecutionMode  `json:"execution_mode"             validate:"required,oneof=sequential parallel conditional"`
	EstimatedDuration float64        `json:"estimated_duration_seconds" validate:"gte=0"`
	Condition         string         `json:"condition,omitempty"` // Predicate expression, conditional mode only
	RetryPolicy       RetryPolicy    `json:"retry_policy"`
	Status            ActionStatus   `json:"status"`
}

// WithStatus returns a copy of the node in the requested status. A zero
// status counts as active. Illegal transitions return an
// *InvalidTransitionError and leave the receiver untouched.
func (n ActionNode) WithStatus(next ActionStatus) (ActionNode, error) {
	current := n.Status
	if current == "" {
		current = ActionStatusActive
	}

	for _, allowed := range actionTransitions[current] {
		if allowed == next {
			n.Status = next

			return n, nil
		}
	}

	return n, &InvalidTransitionError{NodeID: n.ID, From: current, To: next}
}

// IsTerminal reports whether the node's status accepts no further transitions.
func (n ActionNode) IsTerminal() bool {
	status := n.Status
	if status == "" {
		status = ActionStatusActive
	}

	return len(actionTransitions[status]) == 0
}

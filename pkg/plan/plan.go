// Package plan builds ordered, grouped execution plans from a container's
// action nodes.
package plan

import (
	"errors"
	"fmt"
	"sort"

	"github.com/modelflow/modelflow/pkg/models"
)

var (
	// ErrEmptyNodeSet indicates a plan was requested for zero action nodes.
	ErrEmptyNodeSet = errors.New("empty action node set")

	// ErrContainerMismatch indicates a node belongs to a different container.
	ErrContainerMismatch = errors.New("action node container mismatch")
)

// ExecutionGroup is a priority- and mode-homogeneous batch of action nodes.
type ExecutionGroup struct {
	ID                string               `json:"id"`
	Priority          int                  `json:"priority"`
	ExecutionMode     models.ExecutionMode `json:"execution_mode"`
	Actions           []*models.ActionNode `json:"actions"`
	EstimatedDuration float64              `json:"estimated_duration_seconds"`
}

// ExecutionPlan is the ordered, grouped schedule derived from a container's
// action nodes. Plans are immutable once built.
type ExecutionPlan struct {
	ContainerID            string               `json:"container_id"`
	Actions                []*models.ActionNode `json:"actions"`
	Groups                 []*ExecutionGroup    `json:"groups"`
	TotalEstimatedDuration float64              `json:"total_estimated_duration_seconds"`
}

// Create builds an execution plan for the given container. Nodes are sorted
// ascending by execution order, partitioned into a new group whenever the
// (priority, execution mode) pair changes between adjacent nodes, and the
// groups are ordered by priority descending with first-seen order on ties.
// Create is pure: the input slice is not modified.
func Create(containerID string, actions []*models.ActionNode) (*ExecutionPlan, error) {
	if len(actions) == 0 {
		return nil, ErrEmptyNodeSet
	}

	for _, action := range actions {
		if action.ParentNodeID != containerID {
			return nil, fmt.Errorf("%w: action %s belongs to %s, want %s",
				ErrContainerMismatch, action.ID, action.ParentNodeID, containerID)
		}
	}

	sorted := make([]*models.ActionNode, len(actions))
	copy(sorted, actions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ExecutionOrder < sorted[j].ExecutionOrder
	})

	groups := partition(sorted)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Priority > groups[j].Priority
	})

	var total float64
	for _, action := range sorted {
		total += action.EstimatedDuration
	}

	return &ExecutionPlan{
		ContainerID:            containerID,
		Actions:                sorted,
		Groups:                 groups,
		TotalEstimatedDuration: total,
	}, nil
}

// partition splits the sorted node sequence into homogeneous groups.
func partition(sorted []*models.ActionNode) []*ExecutionGroup {
	groups := make([]*ExecutionGroup, 0, len(sorted))

	var current *ExecutionGroup

	for _, action := range sorted {
		if current == nil || current.Priority != action.Priority || current.ExecutionMode != action.ExecutionMode {
			current = &ExecutionGroup{
				ID:            GroupID(action.Priority, action.ExecutionMode),
				Priority:      action.Priority,
				ExecutionMode: action.ExecutionMode,
			}
			groups = append(groups, current)
		}

		current.Actions = append(current.Actions, action)
		current.EstimatedDuration += action.EstimatedDuration
	}

	return groups
}

// GroupID derives the deterministic group identifier for a priority and mode.
func GroupID(priority int, mode models.ExecutionMode) string {
	return fmt.Sprintf("priority_%d_%s", priority, mode)
}

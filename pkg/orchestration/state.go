// Package orchestration drives execution plans to completion while tracking
// live per-orchestration state.
package orchestration

import (
	"time"

	"github.com/modelflow/modelflow/pkg/models"
)

// Status represents the lifecycle state of one orchestration.
type Status string

const (
	StatusExecuting Status = "executing"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// stateTransitions lists the legal orchestration status transitions.
// Completed and failed are terminal.
var stateTransitions = map[Status][]Status{
	StatusExecuting: {StatusPaused, StatusCompleted, StatusFailed},
	StatusPaused:    {StatusExecuting},
}

// CanTransitionTo reports whether the state machine allows the move.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range stateTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsTerminal reports whether the status accepts no further transitions.
func (s Status) IsTerminal() bool {
	return len(stateTransitions[s]) == 0
}

// State is the live progress record of one orchestration. The store owns it;
// every read through the store returns a copy.
type State struct {
	ID              string                   `json:"id"`
	ContainerID     string                   `json:"container_id"`
	Status          Status                   `json:"status"`
	CompletedGroups []string                 `json:"completed_groups"`
	FailedGroups    []string                 `json:"failed_groups"`
	Results         []models.ExecutionResult `json:"results"`
	StartTime       time.Time                `json:"start_time"`
	EndTime         *time.Time               `json:"end_time,omitempty"`
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	clone := *s

	clone.CompletedGroups = append([]string(nil), s.CompletedGroups...)
	clone.FailedGroups = append([]string(nil), s.FailedGroups...)

	if s.Results != nil {
		clone.Results = make([]models.ExecutionResult, len(s.Results))
		for i, result := range s.Results {
			clone.Results[i] = result.Clone()
		}
	}

	if s.EndTime != nil {
		end := *s.EndTime
		clone.EndTime = &end
	}

	return &clone
}

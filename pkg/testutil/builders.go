// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/modelflow/modelflow/pkg/models"
)

// CreateTestAction creates a test ActionNode with default values that can be
// overridden.
func CreateTestAction(overrides ...func(*models.ActionNode)) *models.ActionNode {
	action := &models.ActionNode{
		ID:                uuid.New().String(),
		ParentNodeID:      "container-1",
		Name:              "Test Action",
		Type:              "log",
		Config:            map[string]any{"message": "test", "level": "info"},
		ExecutionOrder:    1,
		Priority:          1,
		ExecutionMode:     models.ExecutionModeSequential,
		EstimatedDuration: 30,
		RetryPolicy: models.RetryPolicy{
			MaxAttempts:     3,
			BackoffStrategy: models.BackoffStrategyExponential,
			BaseDelay:       time.Second,
			MaxDelay:        30 * time.Second,
		},
		Status: models.ActionStatusActive,
	}

	for _, override := range overrides {
		override(action)
	}

	return action
}

// WithID sets the action id.
func WithID(id string) func(*models.ActionNode) {
	return func(a *models.ActionNode) {
		a.ID = id
	}
}

// WithParent sets the owning container id.
func WithParent(containerID string) func(*models.ActionNode) {
	return func(a *models.ActionNode) {
		a.ParentNodeID = containerID
	}
}

// WithOrder sets the execution order.
func WithOrder(order int) func(*models.ActionNode) {
	return func(a *models.ActionNode) {
		a.ExecutionOrder = order
	}
}

// WithPriority sets the priority.
func WithPriority(priority int) func(*models.ActionNode) {
	return func(a *models.ActionNode) {
		a.Priority = priority
	}
}

// WithMode sets the execution mode.
func WithMode(mode models.ExecutionMode) func(*models.ActionNode) {
	return func(a *models.ActionNode) {
		a.ExecutionMode = mode
	}
}

// WithDuration sets the estimated duration in seconds.
func WithDuration(seconds float64) func(*models.ActionNode) {
	return func(a *models.ActionNode) {
		a.EstimatedDuration = seconds
	}
}

// WithCondition sets the conditional predicate expression.
func WithCondition(expression string) func(*models.ActionNode) {
	return func(a *models.ActionNode) {
		a.Condition = expression
	}
}

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(policy models.RetryPolicy) func(*models.ActionNode) {
	return func(a *models.ActionNode) {
		a.RetryPolicy = policy
	}
}

// WithStatusValue sets the status directly, bypassing transition checks.
func WithStatusValue(status models.ActionStatus) func(*models.ActionNode) {
	return func(a *models.ActionNode) {
		a.Status = status
	}
}

// WithType sets the handler type.
func WithType(actionType string) func(*models.ActionNode) {
	return func(a *models.ActionNode) {
		a.Type = actionType
	}
}

// CreateTestModel creates a published FunctionModel with one container that
// owns the given actions.
func CreateTestModel(containerID string, actions ...*models.ActionNode) *models.FunctionModel {
	now := time.Now().UTC()

	return &models.FunctionModel{
		ID:          uuid.New().String(),
		Name:        "Test Function Model",
		Description: "Built by testutil",
		Status:      models.ModelStatusPublished,
		Nodes: []*models.ModelNode{
			{ID: "input-1", Kind: models.NodeKindInput, Name: "Input"},
			{ID: containerID, Kind: models.NodeKindContainer, Name: "Container"},
			{ID: "output-1", Kind: models.NodeKindOutput, Name: "Output"},
		},
		Actions:     actions,
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: &now,
	}
}

// Package web provides HTTP request and response types for the function
// model API.
package web

import "github.com/modelflow/modelflow/pkg/models"

// CreateModelRequest represents the request body for creating a function model.
type CreateModelRequest struct {
	Name        string               `json:"name"                  validate:"required,min=3"`
	Description string               `json:"description"`
	Nodes       []*models.ModelNode  `json:"nodes,omitempty"`
	Actions     []*models.ActionNode `json:"actions,omitempty"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
	Owner       string               `json:"owner"`
}

// UpdateModelRequest represents the request body for updating a model.
// All fields are optional to support partial updates.
type UpdateModelRequest struct {
	Name        *string              `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string              `json:"description,omitempty"`
	Nodes       []*models.ModelNode  `json:"nodes,omitempty"`
	Actions     []*models.ActionNode `json:"actions,omitempty"`
	Metadata    map[string]any       `json:"metadata,omitempty"`
}

// StartOrchestrationRequest represents the request body for starting an
// orchestration of a container's action nodes.
type StartOrchestrationRequest struct {
	ModelID     string `json:"model_id"     validate:"required"`
	ContainerID string `json:"container_id" validate:"required"`
	Async       bool   `json:"async"`
}

// StartOrchestrationResponse is returned when an orchestration is accepted.
type StartOrchestrationResponse struct {
	OrchestrationID string `json:"orchestration_id"`
	Status          string `json:"status"`
}

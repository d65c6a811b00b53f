// Package web provides HTTP handlers and REST API endpoints for function
// model and orchestration management.
package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/orchestration"
	"github.com/modelflow/modelflow/pkg/persistence"
	"github.com/modelflow/modelflow/pkg/plan"
	"github.com/modelflow/modelflow/pkg/registry"
	"github.com/modelflow/modelflow/pkg/validation"
)

// Orchestrator is the slice of the orchestration engine the API consumes.
type Orchestrator interface {
	StartExecution(ctx context.Context, executionPlan *plan.ExecutionPlan) (string, error)
	StartExecutionAsync(ctx context.Context, executionPlan *plan.ExecutionPlan) (string, error)
	PauseExecution(ctx context.Context, orchestrationID string) error
	ResumeExecution(ctx context.Context, orchestrationID string) error
	GetOrchestrationState(ctx context.Context, orchestrationID string) (*orchestration.State, error)
}

type APIHandlers struct {
	persistence  persistence.Persistence
	orchestrator Orchestrator
	validator    *validator.Validate
	modelRules   *validation.Validator
	registry     *registry.Registry
}

func NewAPIHandlers(
	p persistence.Persistence,
	orchestrator Orchestrator,
	validate *validator.Validate,
	modelRules *validation.Validator,
	reg *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		persistence:  p,
		orchestrator: orchestrator,
		validator:    validate,
		modelRules:   modelRules,
		registry:     reg,
	}
}

func (h *APIHandlers) GetModels(c fiber.Ctx) error {
	all, err := h.persistence.Models(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(all)
}

func (h *APIHandlers) GetModel(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Model ID is required")
	}

	model, err := h.persistence.ModelByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(model)
}

func (h *APIHandlers) CreateModel(c fiber.Ctx) error {
	var req CreateModelRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	model := &models.FunctionModel{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ModelStatusDraft,
		Nodes:       req.Nodes,
		Actions:     req.Actions,
		Metadata:    req.Metadata,
		Owner:       req.Owner,
	}

	if result := h.modelRules.ValidateModel(model); !result.Valid {
		return badRequest(c, "Model validation failed: "+joinErrors(result))
	}

	if err := h.persistence.SaveModel(c.Context(), model); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(model)
}

func (h *APIHandlers) UpdateModel(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Model ID is required")
	}

	var req UpdateModelRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.persistence.ModelByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Nodes != nil {
		existing.Nodes = req.Nodes
	}

	if req.Actions != nil {
		existing.Actions = req.Actions
	}

	if req.Metadata != nil {
		existing.Metadata = req.Metadata
	}

	if result := h.modelRules.ValidateModel(existing); !result.Valid {
		return badRequest(c, "Model validation failed: "+joinErrors(result))
	}

	if err := h.persistence.SaveModel(c.Context(), existing); err != nil {
		return internalError(c, err)
	}

	return c.JSON(existing)
}

func (h *APIHandlers) DeleteModel(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Model ID is required")
	}

	err := h.persistence.DeleteModel(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// PublishModel flips a draft model to published, making it executable.
func (h *APIHandlers) PublishModel(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Model ID is required")
	}

	model, err := h.persistence.ModelByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	if model.Status == models.ModelStatusPublished {
		return conflict(c, "model is already published")
	}

	if result := h.modelRules.ValidateModel(model); !result.Valid {
		return badRequest(c, "Model validation failed: "+joinErrors(result))
	}

	now := time.Now().UTC()
	model.Status = models.ModelStatusPublished
	model.PublishedAt = &now

	if err := h.persistence.SaveModel(c.Context(), model); err != nil {
		return internalError(c, err)
	}

	return c.JSON(model)
}

// StartOrchestration builds an execution plan for the requested container
// and launches it.
func (h *APIHandlers) StartOrchestration(c fiber.Ctx) error {
	var req StartOrchestrationRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	model, err := h.persistence.ModelByID(c.Context(), req.ModelID)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	if result := h.modelRules.ValidateForExecution(model, req.ContainerID); !result.Valid {
		return badRequest(c, "Execution validation failed: "+joinErrors(result))
	}

	executionPlan, err := plan.Create(req.ContainerID, model.ActionsFor(req.ContainerID))
	if err != nil {
		return badRequest(c, err.Error())
	}

	if req.Async {
		orchestrationID, startErr := h.orchestrator.StartExecutionAsync(c.Context(), executionPlan)
		if startErr != nil {
			return internalError(c, startErr)
		}

		return c.Status(fiber.StatusAccepted).JSON(StartOrchestrationResponse{
			OrchestrationID: orchestrationID,
			Status:          string(orchestration.StatusExecuting),
		})
	}

	orchestrationID, err := h.orchestrator.StartExecution(c.Context(), executionPlan)
	if err != nil && orchestrationID == "" {
		return internalError(c, err)
	}

	state, stateErr := h.orchestrator.GetOrchestrationState(c.Context(), orchestrationID)
	if stateErr != nil {
		return handleOrchestrationError(c, stateErr)
	}

	if persistErr := h.persistence.AppendResults(c.Context(), orchestrationID, state.Results); persistErr != nil {
		return internalError(c, persistErr)
	}

	return c.Status(fiber.StatusCreated).JSON(StartOrchestrationResponse{
		OrchestrationID: orchestrationID,
		Status:          string(state.Status),
	})
}

func (h *APIHandlers) GetOrchestration(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Orchestration ID is required")
	}

	state, err := h.orchestrator.GetOrchestrationState(c.Context(), id)
	if err != nil {
		return handleOrchestrationError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) PauseOrchestration(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Orchestration ID is required")
	}

	err := h.orchestrator.PauseExecution(c.Context(), id)
	if err != nil {
		return handleOrchestrationError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ResumeOrchestration(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Orchestration ID is required")
	}

	err := h.orchestrator.ResumeExecution(c.Context(), id)
	if err != nil {
		return handleOrchestrationError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetOrchestrationResults(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Orchestration ID is required")
	}

	results, err := h.persistence.ResultsByOrchestration(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(results)
}

func (h *APIHandlers) GetActionTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"action_types": h.registry.Available()})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "Modelflow API is healthy"
	httpStatus := http.StatusOK

	err := h.persistence.HealthCheck(c.Context())
	if err != nil {
		status = "unhealthy"
		message = "Modelflow API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

func joinErrors(result validation.Result) string {
	return strings.Join(result.Errors, "; ")
}

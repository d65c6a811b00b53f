package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/modelflow/modelflow/pkg/orchestration"
	"github.com/modelflow/modelflow/pkg/persistence"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleOrchestrationError maps engine errors onto problem responses.
func handleOrchestrationError(c fiber.Ctx, err error) error {
	switch {
	case orchestration.IsNotFound(err):
		return notFound(c, "orchestration not found")
	case orchestration.IsInvalidTransition(err):
		return conflict(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// handlePersistenceError maps persistence errors onto problem responses.
func handlePersistenceError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsModelNotFound(err):
		return notFound(c, "function model not found")
	case persistence.IsResultsNotFound(err):
		return notFound(c, "orchestration results not found")
	default:
		return internalError(c, err)
	}
}

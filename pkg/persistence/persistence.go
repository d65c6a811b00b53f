// Package persistence provides the data storage abstraction for function
// models and orchestration results.
package persistence

import (
	"context"

	"github.com/modelflow/modelflow/pkg/models"
)

type Persistence interface {
	Models(ctx context.Context) ([]*models.FunctionModel, error)
	ModelByID(ctx context.Context, id string) (*models.FunctionModel, error)
	SaveModel(ctx context.Context, model *models.FunctionModel) error
	DeleteModel(ctx context.Context, id string) error

	AppendResults(ctx context.Context, orchestrationID string, results []models.ExecutionResult) error
	ResultsByOrchestration(ctx context.Context, orchestrationID string) ([]models.ExecutionResult, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

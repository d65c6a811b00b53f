package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/modelflow/modelflow/pkg/models"
)

// MockPersistence is a mock implementation of the persistence.Persistence
// interface.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Models(ctx context.Context) ([]*models.FunctionModel, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.FunctionModel), args.Error(1)
}

func (m *MockPersistence) ModelByID(ctx context.Context, id string) (*models.FunctionModel, error) {
	args := m.Called(ctx, id)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.FunctionModel), args.Error(1)
}

func (m *MockPersistence) SaveModel(ctx context.Context, model *models.FunctionModel) error {
	args := m.Called(ctx, model)

	return args.Error(0)
}

func (m *MockPersistence) DeleteModel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) AppendResults(ctx context.Context, orchestrationID string, results []models.ExecutionResult) error {
	args := m.Called(ctx, orchestrationID, results)

	return args.Error(0)
}

func (m *MockPersistence) ResultsByOrchestration(ctx context.Context, orchestrationID string) ([]models.ExecutionResult, error) {
	args := m.Called(ctx, orchestrationID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.ExecutionResult), args.Error(1)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

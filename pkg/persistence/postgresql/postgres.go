// Package postgresql provides PostgreSQL persistence for function models and
// orchestration results.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the postgres driver.
	_ "github.com/lib/pq"
	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db         *sql.DB
	logger     *slog.Logger
	modelRepo  *ModelRepository
	resultRepo *ResultRepository
}

// NewPersistence connects to PostgreSQL and runs pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:         database,
		logger:     logger,
		modelRepo:  NewModelRepository(database, logger),
		resultRepo: NewResultRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Models(ctx context.Context) ([]*models.FunctionModel, error) {
	return p.modelRepo.GetAll(ctx)
}

func (p *Persistence) ModelByID(ctx context.Context, id string) (*models.FunctionModel, error) {
	return p.modelRepo.GetByID(ctx, id)
}

func (p *Persistence) SaveModel(ctx context.Context, model *models.FunctionModel) error {
	return p.modelRepo.Save(ctx, model)
}

// DeleteModel soft deletes a model by setting its deleted_at timestamp.
func (p *Persistence) DeleteModel(ctx context.Context, id string) error {
	return p.modelRepo.Delete(ctx, id)
}

func (p *Persistence) AppendResults(ctx context.Context, orchestrationID string, results []models.ExecutionResult) error {
	return p.resultRepo.Append(ctx, orchestrationID, results)
}

func (p *Persistence) ResultsByOrchestration(ctx context.Context, orchestrationID string) ([]models.ExecutionResult, error) {
	return p.resultRepo.ByOrchestration(ctx, orchestrationID)
}

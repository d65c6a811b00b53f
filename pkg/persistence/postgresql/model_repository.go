package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/persistence"
)

// ModelRepository handles function model database operations.
type ModelRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewModelRepository(db *sql.DB, logger *slog.Logger) *ModelRepository {
	return &ModelRepository{db: db, logger: logger}
}

const modelColumns = `
	id
  , name
  , description
  , status
  , nodes
  , actions
  , metadata
  , owner
  , created_at
  , updated_at
  , published_at
  , deleted_at
`

// GetAll returns all non-deleted models, newest first.
func (r *ModelRepository) GetAll(ctx context.Context) ([]*models.FunctionModel, error) {
	query := `SELECT ` + modelColumns + `
		FROM function_models
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query function models: %w", err)
	}

	defer func() {
		closeErr := rows.Close()
		if closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	result := make([]*models.FunctionModel, 0)

	for rows.Next() {
		model, scanErr := scanModel(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan function model: %w", scanErr)
		}

		result = append(result, model)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating function models: %w", err)
	}

	return result, nil
}

func (r *ModelRepository) GetByID(ctx context.Context, id string) (*models.FunctionModel, error) {
	query := `SELECT ` + modelColumns + `
		FROM function_models
		WHERE id = $1 AND deleted_at IS NULL
	`

	model, err := scanModel(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewModelError("GetByID", id, persistence.ErrModelNotFound)
		}

		return nil, persistence.NewModelError("GetByID", id, err)
	}

	return model, nil
}

// Save upserts a model. Missing identifiers and timestamps are filled in.
func (r *ModelRepository) Save(ctx context.Context, model *models.FunctionModel) error {
	now := time.Now().UTC()

	if model.ID == "" {
		model.ID = uuid.New().String()
	}

	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}

	model.UpdatedAt = now

	nodes, err := json.Marshal(model.Nodes)
	if err != nil {
		return persistence.NewModelError("Save", model.ID, err)
	}

	actions, err := json.Marshal(model.Actions)
	if err != nil {
		return persistence.NewModelError("Save", model.ID, err)
	}

	var metadata []byte
	if model.Metadata != nil {
		metadata, err = json.Marshal(model.Metadata)
		if err != nil {
			return persistence.NewModelError("Save", model.ID, err)
		}
	}

	query := `
		INSERT INTO function_models (
			id, name, description, status, nodes, actions, metadata, owner,
			created_at, updated_at, published_at, deleted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			nodes = EXCLUDED.nodes,
			actions = EXCLUDED.actions,
			metadata = EXCLUDED.metadata,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at,
			published_at = EXCLUDED.published_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err = r.db.ExecContext(ctx, query,
		model.ID, model.Name, model.Description, string(model.Status),
		nodes, actions, metadata, model.Owner,
		model.CreatedAt, model.UpdatedAt, model.PublishedAt, model.DeletedAt,
	)
	if err != nil {
		return persistence.NewModelError("Save", model.ID, err)
	}

	return nil
}

// Delete soft deletes by setting deleted_at.
func (r *ModelRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE function_models
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return persistence.NewModelError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewModelError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewModelError("Delete", id, persistence.ErrModelNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanModel(row rowScanner) (*models.FunctionModel, error) {
	var (
		model    models.FunctionModel
		status   string
		nodes    []byte
		actions  []byte
		metadata []byte
		owner    sql.NullString
	)

	err := row.Scan(
		&model.ID, &model.Name, &model.Description, &status,
		&nodes, &actions, &metadata, &owner,
		&model.CreatedAt, &model.UpdatedAt, &model.PublishedAt, &model.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	model.Status = models.ModelStatus(status)
	model.Owner = owner.String

	err = json.Unmarshal(nodes, &model.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nodes: %w", err)
	}

	err = json.Unmarshal(actions, &model.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to decode actions: %w", err)
	}

	if len(metadata) > 0 {
		err = json.Unmarshal(metadata, &model.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}

	return &model, nil
}

// Package file provides file-based persistence for function models and
// orchestration results. Each model and each orchestration's results live in
// their own JSON file under the root directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/persistence"
)

const fileMode = 0o644

// Persistence implements persistence.Persistence on the local file system.
type Persistence struct {
	mu   sync.RWMutex
	root string
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix on root is accepted and stripped.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.TrimPrefix(root, "file://")

	for _, dir := range []string{modelsDir(cleanRoot), resultsDir(cleanRoot)} {
		err := os.MkdirAll(dir, 0o755)
		if err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &Persistence{root: cleanRoot}, nil
}

func modelsDir(root string) string {
	return filepath.Join(root, "models")
}

func resultsDir(root string) string {
	return filepath.Join(root, "results")
}

func (p *Persistence) modelPath(id string) string {
	return filepath.Join(modelsDir(p.root), id+".json")
}

func (p *Persistence) resultsPath(orchestrationID string) string {
	return filepath.Join(resultsDir(p.root), orchestrationID+".json")
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	_, err := os.Stat(p.root)
	if err != nil {
		return fmt.Errorf("persistence root unavailable: %w", err)
	}

	return nil
}

func (p *Persistence) Models(ctx context.Context) ([]*models.FunctionModel, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries, err := fs.Glob(os.DirFS(modelsDir(p.root)), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list model files: %w", err)
	}

	result := make([]*models.FunctionModel, 0, len(entries))

	for _, entry := range entries {
		id := strings.TrimSuffix(entry, ".json")

		model, err := p.readModel(id)
		if err != nil {
			return nil, err
		}

		if model.DeletedAt == nil {
			result = append(result, model)
		}
	}

	return result, nil
}

func (p *Persistence) ModelByID(_ context.Context, id string) (*models.FunctionModel, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	model, err := p.readModel(id)
	if err != nil {
		return nil, err
	}

	if model.DeletedAt != nil {
		return nil, persistence.NewModelError("ModelByID", id, persistence.ErrModelNotFound)
	}

	return model, nil
}

func (p *Persistence) SaveModel(_ context.Context, model *models.FunctionModel) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now().UTC()

	if model.ID == "" {
		model.ID = uuid.New().String()
	}

	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}

	model.UpdatedAt = now

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return persistence.NewModelError("SaveModel", model.ID, err)
	}

	err = os.WriteFile(p.modelPath(model.ID), data, fileMode)
	if err != nil {
		return persistence.NewModelError("SaveModel", model.ID, err)
	}

	return nil
}

// DeleteModel soft deletes a model by setting its deleted_at timestamp.
func (p *Persistence) DeleteModel(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	model, err := p.readModel(id)
	if err != nil {
		return err
	}

	if model.DeletedAt != nil {
		return persistence.NewModelError("DeleteModel", id, persistence.ErrModelNotFound)
	}

	now := time.Now().UTC()
	model.DeletedAt = &now
	model.UpdatedAt = now

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return persistence.NewModelError("DeleteModel", id, err)
	}

	err = os.WriteFile(p.modelPath(id), data, fileMode)
	if err != nil {
		return persistence.NewModelError("DeleteModel", id, err)
	}

	return nil
}

func (p *Persistence) AppendResults(ctx context.Context, orchestrationID string, results []models.ExecutionResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, err := p.readResults(orchestrationID)
	if err != nil && !errors.Is(err, persistence.ErrResultsNotFound) {
		return err
	}

	existing = append(existing, results...)

	data, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results for %s: %w", orchestrationID, err)
	}

	err = os.WriteFile(p.resultsPath(orchestrationID), data, fileMode)
	if err != nil {
		return fmt.Errorf("failed to write results for %s: %w", orchestrationID, err)
	}

	return nil
}

func (p *Persistence) ResultsByOrchestration(_ context.Context, orchestrationID string) ([]models.ExecutionResult, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.readResults(orchestrationID)
}

func (p *Persistence) readModel(id string) (*models.FunctionModel, error) {
	data, err := os.ReadFile(p.modelPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewModelError("readModel", id, persistence.ErrModelNotFound)
		}

		return nil, persistence.NewModelError("readModel", id, err)
	}

	var model models.FunctionModel

	err = json.Unmarshal(data, &model)
	if err != nil {
		return nil, persistence.NewModelError("readModel", id, err)
	}

	return &model, nil
}

func (p *Persistence) readResults(orchestrationID string) ([]models.ExecutionResult, error) {
	data, err := os.ReadFile(p.resultsPath(orchestrationID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("orchestration %s: %w", orchestrationID, persistence.ErrResultsNotFound)
		}

		return nil, fmt.Errorf("failed to read results for %s: %w", orchestrationID, err)
	}

	var results []models.ExecutionResult

	err = json.Unmarshal(data, &results)
	if err != nil {
		return nil, fmt.Errorf("failed to decode results for %s: %w", orchestrationID, err)
	}

	return results, nil
}

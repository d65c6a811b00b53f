// Package config provides YAML loading for function model seed files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/modelflow/modelflow/pkg/models"
)

// SeedFile represents the structure of a models.yaml seed file.
type SeedFile struct {
	Models []SeedModel `yaml:"models"`
}

// SeedModel is a function model definition as written in a seed file.
// Seeded models are published immediately so schedules can pick them up.
type SeedModel struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Owner       string         `yaml:"owner"`
	Metadata    map[string]any `yaml:"metadata"`
	Nodes       []SeedNode     `yaml:"nodes"`
	Actions     []SeedAction   `yaml:"actions"`
}

// SeedNode is a structural node definition in a seed file.
type SeedNode struct {
	ID       string  `yaml:"id"`
	Kind     string  `yaml:"kind"`
	Name     string  `yaml:"name"`
	ParentID *string `yaml:"parent_id"`
}

// SeedAction is an action node definition in a seed file.
type SeedAction struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Type          string         `yaml:"type"`
	ParentNodeID  string         `yaml:"parent_node_id"`
	Config        map[string]any `yaml:"config"`
	Order         int            `yaml:"order"`
	Priority      int            `yaml:"priority"`
	ExecutionMode string         `yaml:"execution_mode"`
	Condition     string         `yaml:"condition"`
	Duration      float64        `yaml:"duration_seconds"`
}

// LoadSeedModels reads a models.yaml file and converts it to function
// models ready for persistence.
func LoadSeedModels(path string) ([]*models.FunctionModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var seedFile SeedFile

	err = yaml.Unmarshal(data, &seedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML seed file: %w", err)
	}

	now := time.Now().UTC()
	seeded := make([]*models.FunctionModel, 0, len(seedFile.Models))

	for _, seed := range seedFile.Models {
		seeded = append(seeded, seed.toModel(now))
	}

	return seeded, nil
}

func (s SeedModel) toModel(now time.Time) *models.FunctionModel {
	model := &models.FunctionModel{
		Name:        s.Name,
		Description: s.Description,
		Status:      models.ModelStatusPublished,
		Metadata:    s.Metadata,
		Owner:       s.Owner,
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: &now,
	}

	for _, node := range s.Nodes {
		model.Nodes = append(model.Nodes, &models.ModelNode{
			ID:       node.ID,
			Kind:     models.NodeKind(node.Kind),
			Name:     node.Name,
			ParentID: node.ParentID,
		})
	}

	for _, action := range s.Actions {
		mode := models.ExecutionModeSequential
		if action.ExecutionMode != "" {
			mode = models.ExecutionMode(action.ExecutionMode)
		}

		priority := action.Priority
		if priority == 0 {
			priority = 1
		}

		model.Actions = append(model.Actions, &models.ActionNode{
			ID:                action.ID,
			Name:              action.Name,
			Type:              action.Type,
			ParentNodeID:      action.ParentNodeID,
			Config:            action.Config,
			ExecutionOrder:    action.Order,
			Priority:          priority,
			ExecutionMode:     mode,
			Condition:         action.Condition,
			EstimatedDuration: action.Duration,
			Status:            models.ActionStatusActive,
		})
	}

	return model
}

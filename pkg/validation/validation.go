// Package validation checks function models and their action nodes for
// executability before an orchestration is started.
package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/modelflow/modelflow/pkg/models"
)

// Result is the outcome of validating a model for execution. An empty Errors
// slice means the model passed.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator runs struct-level and business-rule checks over function models.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// ValidateModel checks the model itself plus every structural node and
// action node it carries.
func (v *Validator) ValidateModel(model *models.FunctionModel) Result {
	var errs []string

	err := v.validate.Struct(model)
	if err != nil {
		errs = append(errs, fmt.Sprintf("model: %v", err))
	}

	for _, node := range model.Nodes {
		err = v.validate.Struct(node)
		if err != nil {
			errs = append(errs, fmt.Sprintf("node %s: %v", node.ID, err))
		}
	}

	seen := make(map[string]bool, len(model.Actions))

	for _, action := range model.Actions {
		if seen[action.ID] {
			errs = append(errs, fmt.Sprintf("action %s: duplicate action id", action.ID))
		}

		seen[action.ID] = true

		errs = append(errs, v.checkAction(model, action)...)
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidateForExecution checks that an orchestration may be started for the
// container: the model must be executable and the container must exist and
// own at least one action node.
func (v *Validator) ValidateForExecution(model *models.FunctionModel, containerID string) Result {
	result := v.ValidateModel(model)
	errs := result.Errors

	if !model.IsExecutable() {
		errs = append(errs, fmt.Sprintf("model %s is not executable in status %q", model.ID, model.Status))
	}

	if _, ok := model.ContainerByID(containerID); !ok {
		errs = append(errs, fmt.Sprintf("container %s not found in model %s", containerID, model.ID))
	} else if len(model.ActionsFor(containerID)) == 0 {
		errs = append(errs, fmt.Sprintf("container %s owns no action nodes", containerID))
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

func (v *Validator) checkAction(model *models.FunctionModel, action *models.ActionNode) []string {
	var errs []string

	err := v.validate.Struct(action)
	if err != nil {
		errs = append(errs, fmt.Sprintf("action %s: %v", action.ID, err))
	}

	if _, ok := model.ContainerByID(action.ParentNodeID); !ok {
		errs = append(errs, fmt.Sprintf("action %s references unknown container %s", action.ID, action.ParentNodeID))
	}

	policy := action.RetryPolicy
	if policy.MaxDelay > 0 && policy.MaxDelay < policy.BaseDelay {
		errs = append(errs, fmt.Sprintf("action %s retry policy: max delay is below base delay", action.ID))
	}

	return errs
}

// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrModelNotFound indicates a function model was not found by the given
	// identifier.
	ErrModelNotFound = errors.New("function model not found")

	// ErrModelAlreadyExists indicates a model with the same identifier
	// already exists.
	ErrModelAlreadyExists = errors.New("function model already exists")

	// ErrResultsNotFound indicates no results exist for the orchestration.
	ErrResultsNotFound = errors.New("orchestration results not found")
)

// ModelError wraps model-related persistence failures with operation context.
type ModelError struct {
	Op      string // Operation being performed (e.g., "ModelByID", "Save")
	ModelID string
	Err     error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s operation failed for model %s: %v", e.Op, e.ModelID, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func (e *ModelError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewModelError creates a new model error with context.
func NewModelError(op, modelID string, err error) *ModelError {
	return &ModelError{Op: op, ModelID: modelID, Err: err}
}

// IsModelNotFound checks if an error indicates a function model was not found.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}

// IsResultsNotFound checks if an error indicates missing orchestration results.
func IsResultsNotFound(err error) bool {
	return errors.Is(err, ErrResultsNotFound)
}

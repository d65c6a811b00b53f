package validation_test

import (
	"testing"
	"time"

	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/testutil"
	"github.com/modelflow/modelflow/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateModelPasses(t *testing.T) {
	t.Parallel()

	v := validation.NewValidator()

	model := testutil.CreateTestModel("container-1",
		testutil.CreateTestAction(testutil.WithParent("container-1")))

	result := v.ValidateModel(model)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateModelRejectsBadAction(t *testing.T) {
	t.Parallel()

	v := validation.NewValidator()

	bad := testutil.CreateTestAction(testutil.WithParent("container-1"))
	bad.Type = ""
	bad.ExecutionMode = "sideways"

	model := testutil.CreateTestModel("container-1", bad)

	result := v.ValidateModel(model)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
}

func TestValidateModelRejectsDuplicateActionIDs(t *testing.T) {
	t.Parallel()

	v := validation.NewValidator()

	model := testutil.CreateTestModel("container-1",
		testutil.CreateTestAction(testutil.WithID("a-1"), testutil.WithParent("container-1")),
		testutil.CreateTestAction(testutil.WithID("a-1"), testutil.WithParent("container-1")),
	)

	result := v.ValidateModel(model)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "duplicate action id")
}

func TestValidateModelRejectsOrphanAction(t *testing.T) {
	t.Parallel()

	v := validation.NewValidator()

	orphan := testutil.CreateTestAction(testutil.WithParent("no-such-container"))
	model := testutil.CreateTestModel("container-1", orphan)

	result := v.ValidateModel(model)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "unknown container")
}

func TestValidateModelRejectsBadRetryPolicy(t *testing.T) {
	t.Parallel()

	v := validation.NewValidator()

	action := testutil.CreateTestAction(
		testutil.WithParent("container-1"),
		testutil.WithRetryPolicy(models.RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   time.Minute,
			MaxDelay:    time.Second,
		}),
	)
	model := testutil.CreateTestModel("container-1", action)

	result := v.ValidateModel(model)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "max delay is below base delay")
}

func TestValidateForExecution(t *testing.T) {
	t.Parallel()

	v := validation.NewValidator()

	model := testutil.CreateTestModel("container-1",
		testutil.CreateTestAction(testutil.WithParent("container-1")))

	result := v.ValidateForExecution(model, "container-1")
	assert.True(t, result.Valid)
}

func TestValidateForExecutionRejectsDraft(t *testing.T) {
	t.Parallel()

	v := validation.NewValidator()

	model := testutil.CreateTestModel("container-1",
		testutil.CreateTestAction(testutil.WithParent("container-1")))
	model.Status = models.ModelStatusDraft
	model.PublishedAt = nil

	result := v.ValidateForExecution(model, "container-1")
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "not executable")
}

func TestValidateForExecutionRejectsUnknownContainer(t *testing.T) {
	t.Parallel()

	v := validation.NewValidator()

	model := testutil.CreateTestModel("container-1",
		testutil.CreateTestAction(testutil.WithParent("container-1")))

	result := v.ValidateForExecution(model, "container-9")
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "not found")
}

func TestValidateForExecutionRejectsEmptyContainer(t *testing.T) {
	t.Parallel()

	v := validation.NewValidator()

	model := testutil.CreateTestModel("container-1")

	result := v.ValidateForExecution(model, "container-1")
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "owns no action nodes")
}

package file_test

import (
	"context"
	"testing"
	"time"

	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/persistence"
	"github.com/modelflow/modelflow/pkg/persistence/file"
	"github.com/modelflow/modelflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPersistence(t *testing.T) *file.Persistence {
	t.Helper()

	p, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	return p
}

func TestSaveAndLoadModel(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	ctx := context.Background()

	action := testutil.CreateTestAction(testutil.WithParent("container-1"))
	model := testutil.CreateTestModel("container-1", action)

	require.NoError(t, p.SaveModel(ctx, model))
	require.NotEmpty(t, model.ID)
	assert.False(t, model.UpdatedAt.IsZero())

	loaded, err := p.ModelByID(ctx, model.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Name, loaded.Name)
	require.Len(t, loaded.Actions, 1)
	assert.Equal(t, action.ID, loaded.Actions[0].ID)
	assert.Equal(t, models.ExecutionModeSequential, loaded.Actions[0].ExecutionMode)
}

func TestModelByIDNotFound(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)

	_, err := p.ModelByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsModelNotFound(err))
}

func TestModelsSkipsDeleted(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	ctx := context.Background()

	kept := testutil.CreateTestModel("container-1")
	deleted := testutil.CreateTestModel("container-2")

	require.NoError(t, p.SaveModel(ctx, kept))
	require.NoError(t, p.SaveModel(ctx, deleted))
	require.NoError(t, p.DeleteModel(ctx, deleted.ID))

	all, err := p.Models(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, kept.ID, all[0].ID)

	_, err = p.ModelByID(ctx, deleted.ID)
	require.Error(t, err)
	assert.True(t, persistence.IsModelNotFound(err))
}

func TestDeleteModelTwice(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	ctx := context.Background()

	model := testutil.CreateTestModel("container-1")
	require.NoError(t, p.SaveModel(ctx, model))
	require.NoError(t, p.DeleteModel(ctx, model.ID))

	err := p.DeleteModel(ctx, model.ID)
	require.Error(t, err)
	assert.True(t, persistence.IsModelNotFound(err))
}

func TestAppendAndReadResults(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)
	ctx := context.Background()

	orchestrationID := "orch_container-1_42"

	require.NoError(t, p.AppendResults(ctx, orchestrationID, []models.ExecutionResult{
		{ActionID: "a-1", Success: true, Duration: time.Second, Timestamp: time.Now().UTC()},
	}))
	require.NoError(t, p.AppendResults(ctx, orchestrationID, []models.ExecutionResult{
		{ActionID: "a-2", Success: false, Error: "boom", Timestamp: time.Now().UTC()},
	}))

	results, err := p.ResultsByOrchestration(ctx, orchestrationID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a-1", results[0].ActionID)
	assert.Equal(t, "a-2", results[1].ActionID)
	assert.Equal(t, "boom", results[1].Error)
}

func TestResultsNotFound(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)

	_, err := p.ResultsByOrchestration(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsResultsNotFound(err))
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	p := newTestPersistence(t)

	require.NoError(t, p.HealthCheck(context.Background()))
}

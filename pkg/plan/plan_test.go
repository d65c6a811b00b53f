package plan_test

import (
	"testing"

	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/plan"
	"github.com/modelflow/modelflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_EmptyNodeSet(t *testing.T) {
	_, err := plan.Create("container-1", nil)
	require.ErrorIs(t, err, plan.ErrEmptyNodeSet)

	_, err = plan.Create("container-1", []*models.ActionNode{})
	require.ErrorIs(t, err, plan.ErrEmptyNodeSet)
}

func TestCreate_ContainerMismatch(t *testing.T) {
	actions := []*models.ActionNode{
		testutil.CreateTestAction(testutil.WithParent("container-a")),
		testutil.CreateTestAction(testutil.WithParent("container-b")),
	}

	_, err := plan.Create("container-a", actions)
	require.ErrorIs(t, err, plan.ErrContainerMismatch)
	assert.Contains(t, err.Error(), "container-b")
}

func TestCreate_SortsActionsByExecutionOrder(t *testing.T) {
	actions := []*models.ActionNode{
		testutil.CreateTestAction(testutil.WithID("third"), testutil.WithOrder(30)),
		testutil.CreateTestAction(testutil.WithID("first"), testutil.WithOrder(10)),
		testutil.CreateTestAction(testutil.WithID("second"), testutil.WithOrder(20)),
	}

	built, err := plan.Create("container-1", actions)
	require.NoError(t, err)

	ids := make([]string, 0, len(built.Actions))
	for _, action := range built.Actions {
		ids = append(ids, action.ID)
	}

	assert.Equal(t, []string{"first", "second", "third"}, ids)

	// The input slice keeps its original order.
	assert.Equal(t, "third", actions[0].ID)
}

func TestCreate_GroupingScenario(t *testing.T) {
	// Three nodes, priorities [1,1,2], modes [seq, seq, par],
	// durations [60, 90, 120].
	actions := []*models.ActionNode{
		testutil.CreateTestAction(testutil.WithID("a"), testutil.WithOrder(1),
			testutil.WithPriority(1), testutil.WithMode(models.ExecutionModeSequential), testutil.WithDuration(60)),
		testutil.CreateTestAction(testutil.WithID("b"), testutil.WithOrder(2),
			testutil.WithPriority(1), testutil.WithMode(models.ExecutionModeSequential), testutil.WithDuration(90)),
		testutil.CreateTestAction(testutil.WithID("c"), testutil.WithOrder(3),
			testutil.WithPriority(2), testutil.WithMode(models.ExecutionModeParallel), testutil.WithDuration(120)),
	}

	built, err := plan.Create("container-1", actions)
	require.NoError(t, err)
	require.Len(t, built.Groups, 2)

	first := built.Groups[0]
	assert.Equal(t, 2, first.Priority)
	assert.Equal(t, models.ExecutionModeParallel, first.ExecutionMode)
	assert.Equal(t, "priority_2_parallel", first.ID)
	assert.InDelta(t, 120, first.EstimatedDuration, 0.001)

	second := built.Groups[1]
	assert.Equal(t, 1, second.Priority)
	assert.Equal(t, models.ExecutionModeSequential, second.ExecutionMode)
	assert.Equal(t, "priority_1_sequential", second.ID)
	assert.InDelta(t, 150, second.EstimatedDuration, 0.001)

	assert.InDelta(t, 270, built.TotalEstimatedDuration, 0.001)
}

func TestCreate_GroupsSortedByPriorityDescending(t *testing.T) {
	actions := []*models.ActionNode{
		testutil.CreateTestAction(testutil.WithOrder(1), testutil.WithPriority(1)),
		testutil.CreateTestAction(testutil.WithOrder(2), testutil.WithPriority(5)),
		testutil.CreateTestAction(testutil.WithOrder(3), testutil.WithPriority(3)),
		testutil.CreateTestAction(testutil.WithOrder(4), testutil.WithPriority(5), testutil.WithMode(models.ExecutionModeParallel)),
	}

	built, err := plan.Create("container-1", actions)
	require.NoError(t, err)

	priorities := make([]int, 0, len(built.Groups))
	for _, group := range built.Groups {
		priorities = append(priorities, group.Priority)
	}

	assert.Equal(t, []int{5, 5, 3, 1}, priorities)

	// Equal-priority adjacent groups keep first-seen order and differ in mode.
	assert.Equal(t, models.ExecutionModeSequential, built.Groups[0].ExecutionMode)
	assert.Equal(t, models.ExecutionModeParallel, built.Groups[1].ExecutionMode)
}

func TestCreate_NewGroupOnAdjacentChange(t *testing.T) {
	actions := []*models.ActionNode{
		testutil.CreateTestAction(testutil.WithID("a"), testutil.WithOrder(1), testutil.WithPriority(2)),
		testutil.CreateTestAction(testutil.WithID("b"), testutil.WithOrder(2), testutil.WithPriority(2),
			testutil.WithMode(models.ExecutionModeConditional)),
		testutil.CreateTestAction(testutil.WithID("c"), testutil.WithOrder(3), testutil.WithPriority(2),
			testutil.WithMode(models.ExecutionModeConditional)),
	}

	built, err := plan.Create("container-1", actions)
	require.NoError(t, err)
	require.Len(t, built.Groups, 2)
	assert.Len(t, built.Groups[0].Actions, 1)
	assert.Len(t, built.Groups[1].Actions, 2)
	assert.Equal(t, "priority_2_conditional", built.Groups[1].ID)
}

func TestCreate_Deterministic(t *testing.T) {
	actions := []*models.ActionNode{
		testutil.CreateTestAction(testutil.WithID("a"), testutil.WithOrder(2), testutil.WithDuration(10)),
		testutil.CreateTestAction(testutil.WithID("b"), testutil.WithOrder(1), testutil.WithDuration(20.5)),
	}

	first, err := plan.Create("container-1", actions)
	require.NoError(t, err)

	second, err := plan.Create("container-1", actions)
	require.NoError(t, err)

	assert.Equal(t, first.TotalEstimatedDuration, second.TotalEstimatedDuration)
	assert.Equal(t, len(first.Groups), len(second.Groups))

	for i := range first.Groups {
		assert.Equal(t, first.Groups[i].ID, second.Groups[i].ID)
	}
}

package orchestration_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/modelflow/modelflow/pkg/contextaccess"
	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/orchestration"
	"github.com/modelflow/modelflow/pkg/plan"
	"github.com/modelflow/modelflow/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExecutor records calls and lets tests script per-action outcomes.
type stubExecutor struct {
	mu      sync.Mutex
	calls   []string
	failIDs map[string]bool
	errIDs  map[string]error
	block   chan struct{} // when set, every call waits for a receive
	started chan string   // when set, receives the action id before blocking
}

func (s *stubExecutor) ExecuteAction(ctx context.Context, action *models.ActionNode, _ *contextaccess.Snapshot) (*models.ExecutionResult, error) {
	if s.started != nil {
		s.started <- action.ID
	}

	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, action.ID)
	s.mu.Unlock()

	if err, ok := s.errIDs[action.ID]; ok {
		return nil, err
	}

	return &models.ExecutionResult{
		ActionID:  action.ID,
		Success:   !s.failIDs[action.ID],
		Output:    map[string]any{"echo": action.Name},
		Timestamp: time.Now().UTC(),
	}, nil
}

func (s *stubExecutor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.calls)
}

func (s *stubExecutor) callOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.calls...)
}

func newTestEngine(t *testing.T, executor orchestration.ActionExecutor, opts ...orchestration.Option) (*orchestration.Engine, *orchestration.MemoryStore) {
	t.Helper()

	store := orchestration.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	return orchestration.NewEngine(store, executor, nil, logger, opts...), store
}

func mustPlan(t *testing.T, containerID string, actions ...*models.ActionNode) *plan.ExecutionPlan {
	t.Helper()

	executionPlan, err := plan.Create(containerID, actions)
	require.NoError(t, err)

	return executionPlan
}

func TestStartExecutionSingleNode(t *testing.T) {
	t.Parallel()

	executor := &stubExecutor{}
	engine, _ := newTestEngine(t, executor)

	action := testutil.CreateTestAction(testutil.WithParent("container-1"))
	executionPlan := mustPlan(t, "container-1", action)

	orchestrationID, err := engine.StartExecution(context.Background(), executionPlan)
	require.NoError(t, err)
	require.NotEmpty(t, orchestrationID)

	state, err := engine.GetOrchestrationState(context.Background(), orchestrationID)
	require.NoError(t, err)

	assert.Equal(t, orchestration.StatusCompleted, state.Status)
	assert.Equal(t, "container-1", state.ContainerID)
	assert.False(t, state.StartTime.IsZero())
	require.NotNil(t, state.EndTime)
	assert.False(t, state.EndTime.Before(state.StartTime))

	require.Len(t, state.Results, 1)
	assert.Equal(t, action.ID, state.Results[0].ActionID)
	assert.True(t, state.Results[0].Success)

	assert.Equal(t, []string{plan.GroupID(action.Priority, action.ExecutionMode)}, state.CompletedGroups)
	assert.Empty(t, state.FailedGroups)
}

func TestStartExecutionSequentialOrder(t *testing.T) {
	t.Parallel()

	executor := &stubExecutor{}
	engine, _ := newTestEngine(t, executor)

	first := testutil.CreateTestAction(testutil.WithID("a-1"), testutil.WithOrder(1))
	second := testutil.CreateTestAction(testutil.WithID("a-2"), testutil.WithOrder(2))
	third := testutil.CreateTestAction(testutil.WithID("a-3"), testutil.WithOrder(3))

	executionPlan := mustPlan(t, "container-1", third, first, second)

	_, err := engine.StartExecution(context.Background(), executionPlan)
	require.NoError(t, err)

	assert.Equal(t, []string{"a-1", "a-2", "a-3"}, executor.callOrder())
}

func TestStartExecutionActionFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	executor := &stubExecutor{failIDs: map[string]bool{"a-2": true}}
	engine, _ := newTestEngine(t, executor)

	executionPlan := mustPlan(t, "container-1",
		testutil.CreateTestAction(testutil.WithID("a-1"), testutil.WithOrder(1)),
		testutil.CreateTestAction(testutil.WithID("a-2"), testutil.WithOrder(2)),
		testutil.CreateTestAction(testutil.WithID("a-3"), testutil.WithOrder(3)),
	)

	orchestrationID, err := engine.StartExecution(context.Background(), executionPlan)
	require.NoError(t, err)

	// All members still ran; the group lands in FailedGroups, not an abort.
	assert.Equal(t, 3, executor.callCount())

	state, err := engine.GetOrchestrationState(context.Background(), orchestrationID)
	require.NoError(t, err)

	assert.Equal(t, orchestration.StatusCompleted, state.Status)
	assert.Empty(t, state.CompletedGroups)
	assert.Len(t, state.FailedGroups, 1)
	require.Len(t, state.Results, 3)
	assert.False(t, state.Results[1].Success)
}

func TestStartExecutionExecutorErrorBecomesFailedResult(t *testing.T) {
	t.Parallel()

	executor := &stubExecutor{errIDs: map[string]error{"a-1": errors.New("boom")}}
	engine, _ := newTestEngine(t, executor)

	executionPlan := mustPlan(t, "container-1",
		testutil.CreateTestAction(testutil.WithID("a-1")),
	)

	orchestrationID, err := engine.StartExecution(context.Background(), executionPlan)
	require.NoError(t, err)

	state, err := engine.GetOrchestrationState(context.Background(), orchestrationID)
	require.NoError(t, err)

	require.Len(t, state.Results, 1)
	assert.False(t, state.Results[0].Success)
	assert.Contains(t, state.Results[0].Error, "boom")
	assert.Equal(t, orchestration.StatusCompleted, state.Status)
	assert.Len(t, state.FailedGroups, 1)
}

func TestStartExecutionParallelGroup(t *testing.T) {
	t.Parallel()

	executor := &stubExecutor{}
	engine, _ := newTestEngine(t, executor)

	executionPlan := mustPlan(t, "container-1",
		testutil.CreateTestAction(testutil.WithID("p-1"), testutil.WithOrder(1), testutil.WithMode(models.ExecutionModeParallel)),
		testutil.CreateTestAction(testutil.WithID("p-2"), testutil.WithOrder(2), testutil.WithMode(models.ExecutionModeParallel)),
		testutil.CreateTestAction(testutil.WithID("p-3"), testutil.WithOrder(3), testutil.WithMode(models.ExecutionModeParallel)),
	)

	orchestrationID, err := engine.StartExecution(context.Background(), executionPlan)
	require.NoError(t, err)

	state, err := engine.GetOrchestrationState(context.Background(), orchestrationID)
	require.NoError(t, err)

	assert.Equal(t, orchestration.StatusCompleted, state.Status)
	require.Len(t, state.Results, 3)

	// Results keep member order even though completion order is unspecified.
	assert.Equal(t, "p-1", state.Results[0].ActionID)
	assert.Equal(t, "p-2", state.Results[1].ActionID)
	assert.Equal(t, "p-3", state.Results[2].ActionID)
}

func TestStartExecutionPriorityOrderAcrossGroups(t *testing.T) {
	t.Parallel()

	executor := &stubExecutor{}
	engine, _ := newTestEngine(t, executor)

	executionPlan := mustPlan(t, "container-1",
		testutil.CreateTestAction(testutil.WithID("low"), testutil.WithOrder(1), testutil.WithPriority(1)),
		testutil.CreateTestAction(testutil.WithID("high"), testutil.WithOrder(2), testutil.WithPriority(5)),
	)

	_, err := engine.StartExecution(context.Background(), executionPlan)
	require.NoError(t, err)

	assert.Equal(t, []string{"high", "low"}, executor.callOrder())
}

func TestStartExecutionConditionalGroup(t *testing.T) {
	t.Parallel()

	contexts := contextaccess.NewMemoryService()
	contexts.Register("container-1", nil)
	contexts.Register("c-run", ptr("container-1"))
	contexts.Register("c-skip", ptr("container-1"))

	require.NoError(t, contexts.SetValue("container-1", "enabled", contextaccess.Bool(true)))

	executor := &stubExecutor{}
	store := orchestration.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	engine := orchestration.NewEngine(store, executor, contexts, logger)

	executionPlan := mustPlan(t, "container-1",
		testutil.CreateTestAction(testutil.WithID("c-run"), testutil.WithOrder(1),
			testutil.WithMode(models.ExecutionModeConditional), testutil.WithCondition("enabled == true")),
		testutil.CreateTestAction(testutil.WithID("c-skip"), testutil.WithOrder(2),
			testutil.WithMode(models.ExecutionModeConditional), testutil.WithCondition("enabled == false")),
	)

	orchestrationID, err := engine.StartExecution(context.Background(), executionPlan)
	require.NoError(t, err)

	assert.Equal(t, []string{"c-run"}, executor.callOrder())

	state, err := engine.GetOrchestrationState(context.Background(), orchestrationID)
	require.NoError(t, err)

	// Skipped members leave no result behind.
	require.Len(t, state.Results, 1)
	assert.Equal(t, "c-run", state.Results[0].ActionID)
	assert.Equal(t, orchestration.StatusCompleted, state.Status)
}

// snapshotExecutor keeps the context snapshots handed to each action.
type snapshotExecutor struct {
	stubExecutor

	mu        sync.Mutex
	snapshots []*contextaccess.Snapshot
}

func (s *snapshotExecutor) ExecuteAction(ctx context.Context, action *models.ActionNode, snapshot *contextaccess.Snapshot) (*models.ExecutionResult, error) {
	s.mu.Lock()
	s.snapshots = append(s.snapshots, snapshot)
	s.mu.Unlock()

	return s.stubExecutor.ExecuteAction(ctx, action, snapshot)
}

func TestStartExecutionRegistersContextHierarchy(t *testing.T) {
	t.Parallel()

	// A fresh service knows no nodes; the engine must register the plan's
	// hierarchy itself or every context lookup fails the action.
	contexts := contextaccess.NewMemoryService()

	executor := &snapshotExecutor{}
	store := orchestration.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	engine := orchestration.NewEngine(store, executor, contexts, logger)

	executionPlan := mustPlan(t, "container-1",
		testutil.CreateTestAction(testutil.WithID("a-1"), testutil.WithParent("container-1")))

	orchestrationID, err := engine.StartExecution(context.Background(), executionPlan)
	require.NoError(t, err)

	state, err := engine.GetOrchestrationState(context.Background(), orchestrationID)
	require.NoError(t, err)
	assert.Equal(t, orchestration.StatusCompleted, state.Status)

	require.Len(t, state.Results, 1)
	assert.True(t, state.Results[0].Success)

	require.Len(t, executor.snapshots, 1)
	require.NotNil(t, executor.snapshots[0])
	assert.Equal(t, "container-1", executor.snapshots[0].TargetNodeID)
}

func TestEvaluateConditionalExecutionErrorDefaultsToRun(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t, &stubExecutor{})

	action := testutil.CreateTestAction(testutil.WithCondition("missing_key == 1"))

	assert.True(t, engine.EvaluateConditionalExecution(action, nil))
}

func TestPauseExecutionWhileExecuting(t *testing.T) {
	t.Parallel()

	engine, store := newTestEngine(t, &stubExecutor{})

	require.NoError(t, store.Create(context.Background(), &orchestration.State{
		ID:          "orch-1",
		ContainerID: "container-1",
		Status:      orchestration.StatusExecuting,
		StartTime:   time.Now().UTC(),
	}))

	require.NoError(t, engine.PauseExecution(context.Background(), "orch-1"))

	state, err := engine.GetOrchestrationState(context.Background(), "orch-1")
	require.NoError(t, err)
	assert.Equal(t, orchestration.StatusPaused, state.Status)

	require.NoError(t, engine.ResumeExecution(context.Background(), "orch-1"))

	state, err = engine.GetOrchestrationState(context.Background(), "orch-1")
	require.NoError(t, err)
	assert.Equal(t, orchestration.StatusExecuting, state.Status)
}

func TestPauseExecutionAfterCompletionFails(t *testing.T) {
	t.Parallel()

	executor := &stubExecutor{}
	engine, _ := newTestEngine(t, executor)

	executionPlan := mustPlan(t, "container-1", testutil.CreateTestAction())

	orchestrationID, err := engine.StartExecution(context.Background(), executionPlan)
	require.NoError(t, err)

	err = engine.PauseExecution(context.Background(), orchestrationID)
	require.Error(t, err)
	assert.True(t, orchestration.IsInvalidTransition(err))

	var transitionErr *orchestration.TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, orchestration.StatusCompleted, transitionErr.From)
	assert.Equal(t, orchestration.StatusPaused, transitionErr.To)
}

func TestResumeExecutionRequiresPaused(t *testing.T) {
	t.Parallel()

	engine, store := newTestEngine(t, &stubExecutor{})

	require.NoError(t, store.Create(context.Background(), &orchestration.State{
		ID:        "orch-1",
		Status:    orchestration.StatusExecuting,
		StartTime: time.Now().UTC(),
	}))

	err := engine.ResumeExecution(context.Background(), "orch-1")
	require.Error(t, err)
	assert.True(t, orchestration.IsInvalidTransition(err))
}

func TestPauseBlocksAtGroupBoundary(t *testing.T) {
	t.Parallel()

	executor := &stubExecutor{
		block:   make(chan struct{}),
		started: make(chan string, 2),
	}
	engine, _ := newTestEngine(t, executor,
		orchestration.WithPausePollInterval(5*time.Millisecond))

	executionPlan := mustPlan(t, "container-1",
		testutil.CreateTestAction(testutil.WithID("g1"), testutil.WithOrder(1), testutil.WithPriority(2)),
		testutil.CreateTestAction(testutil.WithID("g2"), testutil.WithOrder(2), testutil.WithPriority(1)),
	)

	orchestrationID, err := engine.StartExecutionAsync(context.Background(), executionPlan)
	require.NoError(t, err)

	// First member is in flight; pause now so the engine must halt at the
	// boundary between the two groups.
	require.Equal(t, "g1", <-executor.started)
	require.NoError(t, engine.PauseExecution(context.Background(), orchestrationID))

	executor.block <- struct{}{}

	require.Eventually(t, func() bool {
		state, stateErr := engine.GetOrchestrationState(context.Background(), orchestrationID)

		return stateErr == nil && len(state.Results) == 1
	}, time.Second, 5*time.Millisecond)

	// The second group must not start while paused.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, executor.callCount())

	require.NoError(t, engine.ResumeExecution(context.Background(), orchestrationID))

	require.Equal(t, "g2", <-executor.started)
	executor.block <- struct{}{}

	require.Eventually(t, func() bool {
		state, stateErr := engine.GetOrchestrationState(context.Background(), orchestrationID)

		return stateErr == nil && state.Status == orchestration.StatusCompleted
	}, time.Second, 5*time.Millisecond)
}

func TestGetOrchestrationStateUnknown(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t, &stubExecutor{})

	_, err := engine.GetOrchestrationState(context.Background(), "no-such-orchestration")
	require.Error(t, err)
	assert.True(t, orchestration.IsNotFound(err))
}

func TestGetOrchestrationStateReturnsCopy(t *testing.T) {
	t.Parallel()

	executor := &stubExecutor{}
	engine, _ := newTestEngine(t, executor)

	executionPlan := mustPlan(t, "container-1", testutil.CreateTestAction())

	orchestrationID, err := engine.StartExecution(context.Background(), executionPlan)
	require.NoError(t, err)

	first, err := engine.GetOrchestrationState(context.Background(), orchestrationID)
	require.NoError(t, err)

	first.Status = orchestration.StatusFailed
	first.CompletedGroups = append(first.CompletedGroups, "tampered")
	first.Results[0].Success = false
	first.Results[0].Output["echo"] = "tampered"

	second, err := engine.GetOrchestrationState(context.Background(), orchestrationID)
	require.NoError(t, err)

	assert.Equal(t, orchestration.StatusCompleted, second.Status)
	assert.NotContains(t, second.CompletedGroups, "tampered")
	assert.True(t, second.Results[0].Success)
	assert.NotEqual(t, "tampered", second.Results[0].Output["echo"])
}

func ptr(s string) *string {
	return &s
}

package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/modelflow/modelflow/pkg/contextaccess"
	"github.com/modelflow/modelflow/pkg/eventbus"
	"github.com/modelflow/modelflow/pkg/events"
	"github.com/modelflow/modelflow/pkg/models"
	"github.com/modelflow/modelflow/pkg/otelhelper"
	"github.com/modelflow/modelflow/pkg/plan"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultPausePollInterval = 100 * time.Millisecond

// ActionExecutor is the per-action execution primitive. The mechanics of
// running an action are outside the engine; it only consumes the outcome.
// A nil error with a populated result covers both successful and failed
// executions; an error return means the attempt itself could not be made.
type ActionExecutor interface {
	ExecuteAction(ctx context.Context, action *models.ActionNode, snapshot *contextaccess.Snapshot) (*models.ExecutionResult, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithEventBus makes the engine publish lifecycle events. Publishing is
// best-effort and never fails an orchestration.
func WithEventBus(publisher eventbus.EventPublisher) Option {
	return func(e *Engine) {
		e.eventBus = publisher
	}
}

// WithTracer enables tracing of orchestration runs.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithConditionEvaluator replaces the predicate interpreter.
func WithConditionEvaluator(evaluator ConditionEvaluator) Option {
	return func(e *Engine) {
		e.conditions = evaluator
	}
}

// WithPausePollInterval tunes how often a paused orchestration re-checks its
// status at a group boundary.
func WithPausePollInterval(interval time.Duration) Option {
	return func(e *Engine) {
		e.pausePoll = interval
	}
}

// Engine consumes execution plans and drives group-by-group execution.
// A single engine instance serves any number of concurrent orchestrations;
// per-orchestration state lives in the Store.
type Engine struct {
	store      Store
	executor   ActionExecutor
	contexts   contextaccess.Service
	eventBus   eventbus.EventPublisher
	conditions ConditionEvaluator
	tracer     trace.Tracer
	logger     *slog.Logger
	pausePoll  time.Duration
}

func NewEngine(store Store, executor ActionExecutor, contexts contextaccess.Service, logger *slog.Logger, opts ...Option) *Engine {
	engine := &Engine{
		store:      store,
		executor:   executor,
		contexts:   contexts,
		conditions: SimpleConditionEvaluator{},
		tracer:     noop.NewTracerProvider().Tracer("orchestration"),
		logger:     logger.With("module", "orchestration_engine"),
		pausePoll:  defaultPausePollInterval,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// StartExecution registers a new orchestration for the plan and drives it to
// a terminal state before returning. The orchestration identifier is returned
// even when execution fails, so callers can inspect the final state.
func (e *Engine) StartExecution(ctx context.Context, executionPlan *plan.ExecutionPlan) (string, error) {
	orchestrationID, err := e.register(ctx, executionPlan)
	if err != nil {
		return "", err
	}

	return orchestrationID, e.run(ctx, orchestrationID, executionPlan)
}

// StartExecutionAsync registers a new orchestration and returns its
// identifier immediately; execution continues on a background goroutine.
// Callers observe progress through GetOrchestrationState.
func (e *Engine) StartExecutionAsync(ctx context.Context, executionPlan *plan.ExecutionPlan) (string, error) {
	orchestrationID, err := e.register(ctx, executionPlan)
	if err != nil {
		return "", err
	}

	go func() {
		runErr := e.run(context.WithoutCancel(ctx), orchestrationID, executionPlan)
		if runErr != nil {
			e.logger.Error("Orchestration failed",
				"orchestration_id", orchestrationID, "error", runErr)
		}
	}()

	return orchestrationID, nil
}

// PauseExecution requests a pause. Only legal while executing. The pause is
// observed at the next group boundary; in-flight group members are never
// preempted.
func (e *Engine) PauseExecution(ctx context.Context, orchestrationID string) error {
	err := e.transition(ctx, orchestrationID, StatusPaused)
	if err != nil {
		return err
	}

	e.publish(ctx, orchestrationID, events.OrchestrationPaused{
		BaseEvent: events.NewBaseEvent(events.OrchestrationPausedEvent, orchestrationID),
	})

	return nil
}

// ResumeExecution flips a paused orchestration back to executing.
func (e *Engine) ResumeExecution(ctx context.Context, orchestrationID string) error {
	err := e.transition(ctx, orchestrationID, StatusExecuting)
	if err != nil {
		return err
	}

	e.publish(ctx, orchestrationID, events.OrchestrationResumed{
		BaseEvent: events.NewBaseEvent(events.OrchestrationResumedEvent, orchestrationID),
	})

	return nil
}

// GetOrchestrationState returns a copy of the orchestration's live state.
func (e *Engine) GetOrchestrationState(ctx context.Context, orchestrationID string) (*State, error) {
	return e.store.Get(ctx, orchestrationID)
}

// EvaluateConditionalExecution decides whether a conditional-mode action
// should run given context data. It never fails: evaluation errors degrade
// to true, matching the engine's run-by-default policy for conditional
// nodes, and are logged.
func (e *Engine) EvaluateConditionalExecution(action *models.ActionNode, data map[string]contextaccess.Value) bool {
	shouldRun, err := e.conditions.Evaluate(action.Condition, data)
	if err != nil {
		e.logger.Warn("Condition evaluation failed, defaulting to execute",
			"action_id", action.ID, "condition", action.Condition, "error", err)

		return true
	}

	return shouldRun
}

func (e *Engine) register(ctx context.Context, executionPlan *plan.ExecutionPlan) (string, error) {
	start := time.Now().UTC()
	orchestrationID := fmt.Sprintf("orch_%s_%d", executionPlan.ContainerID, start.UnixNano())

	state := &State{
		ID:              orchestrationID,
		ContainerID:     executionPlan.ContainerID,
		Status:          StatusExecuting,
		CompletedGroups: []string{},
		FailedGroups:    []string{},
		Results:         []models.ExecutionResult{},
		StartTime:       start,
	}

	err := e.store.Create(ctx, state)
	if err != nil {
		return "", fmt.Errorf("failed to register orchestration: %w", err)
	}

	e.registerContexts(executionPlan)

	started := events.OrchestrationStarted{
		BaseEvent:              events.NewBaseEvent(events.OrchestrationStartedEvent, orchestrationID),
		GroupCount:             len(executionPlan.Groups),
		ActionCount:            len(executionPlan.Actions),
		TotalEstimatedDuration: executionPlan.TotalEstimatedDuration,
	}
	started.ContainerID = executionPlan.ContainerID
	e.publish(ctx, orchestrationID, started)

	return orchestrationID, nil
}

// contextRegistrar is implemented by context services that track the node
// hierarchy themselves, such as contextaccess.MemoryService.
type contextRegistrar interface {
	Register(nodeID string, parentID *string)
}

// registerContexts seeds the context service with the plan's node hierarchy
// so action context lookups resolve once execution starts. Registration is
// idempotent for nodes that already carry context data.
func (e *Engine) registerContexts(executionPlan *plan.ExecutionPlan) {
	registrar, ok := e.contexts.(contextRegistrar)
	if !ok {
		return
	}

	registrar.Register(executionPlan.ContainerID, nil)
	for _, action := range executionPlan.Actions {
		parentID := action.ParentNodeID
		registrar.Register(action.ID, &parentID)
	}
}

// run drives the plan's groups in priority order and settles the
// orchestration into a terminal state. The returned error reports structural
// faults only; individual action failures are recorded in the state instead.
func (e *Engine) run(ctx context.Context, orchestrationID string, executionPlan *plan.ExecutionPlan) (err error) {
	logger := e.logger.With(
		"orchestration_id", orchestrationID,
		"container_id", executionPlan.ContainerID,
	)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "orchestration.run",
		attribute.String(otelhelper.OrchestrationIDKey, orchestrationID),
		attribute.String(otelhelper.ContainerIDKey, executionPlan.ContainerID),
	)
	defer span.End()

	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("orchestration panicked: %v", recovered)
			e.fail(ctx, logger, orchestrationID, err)
			otelhelper.SetError(span, err)
		}
	}()

	logger.InfoContext(ctx, "Starting orchestration", "groups", len(executionPlan.Groups))

	for _, group := range executionPlan.Groups {
		waitErr := e.waitWhilePaused(ctx, orchestrationID)
		if waitErr != nil {
			e.fail(ctx, logger, orchestrationID, waitErr)
			otelhelper.SetError(span, waitErr)

			return fmt.Errorf("orchestration %s aborted: %w", orchestrationID, waitErr)
		}

		groupErr := e.runGroup(ctx, logger, orchestrationID, group)
		if groupErr != nil {
			e.fail(ctx, logger, orchestrationID, groupErr)
			otelhelper.SetError(span, groupErr)

			return fmt.Errorf("orchestration %s failed: %w", orchestrationID, groupErr)
		}
	}

	// A pause requested during the final group is still honored before the
	// orchestration settles.
	waitErr := e.waitWhilePaused(ctx, orchestrationID)
	if waitErr != nil {
		e.fail(ctx, logger, orchestrationID, waitErr)

		return fmt.Errorf("orchestration %s aborted: %w", orchestrationID, waitErr)
	}

	return e.complete(ctx, logger, orchestrationID)
}

// runGroup executes one group according to its mode, records results in the
// state store and publishes group events. The returned error reports
// structural faults only.
func (e *Engine) runGroup(ctx context.Context, logger *slog.Logger, orchestrationID string, group *plan.ExecutionGroup) error {
	groupLogger := logger.With("group_id", group.ID, "execution_mode", group.ExecutionMode)
	groupLogger.InfoContext(ctx, "Executing group", "actions", len(group.Actions))

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "orchestration.group",
		attribute.String(otelhelper.GroupIDKey, group.ID),
		attribute.String(otelhelper.OrchestrationIDKey, orchestrationID),
	)
	defer span.End()

	var (
		results []models.ExecutionResult
		err     error
	)

	switch group.ExecutionMode {
	case models.ExecutionModeParallel:
		results = e.runParallel(ctx, orchestrationID, group)
	case models.ExecutionModeConditional:
		results, err = e.runConditional(ctx, groupLogger, orchestrationID, group)
	default:
		results, err = e.runSequential(ctx, orchestrationID, group)
	}

	if err != nil {
		return err
	}

	// Parallel and conditional members are recorded in one batch; sequential
	// members were already appended one by one.
	if group.ExecutionMode != models.ExecutionModeSequential {
		appendErr := e.appendResults(ctx, orchestrationID, results)
		if appendErr != nil {
			return appendErr
		}
	}

	failed := false

	for _, result := range results {
		if !result.Success {
			failed = true

			break
		}
	}

	updateErr := e.store.Update(ctx, orchestrationID, func(state *State) error {
		if failed {
			state.FailedGroups = append(state.FailedGroups, group.ID)
		} else {
			state.CompletedGroups = append(state.CompletedGroups, group.ID)
		}

		return nil
	})
	if updateErr != nil {
		return updateErr
	}

	if failed {
		groupLogger.WarnContext(ctx, "Group finished with failures")
		e.publish(ctx, orchestrationID, events.GroupFailed{
			BaseEvent: events.NewBaseEvent(events.GroupFailedEvent, orchestrationID),
			GroupID:   group.ID,
			Results:   results,
		})
	} else {
		groupLogger.InfoContext(ctx, "Group completed")
		e.publish(ctx, orchestrationID, events.GroupCompleted{
			BaseEvent: events.NewBaseEvent(events.GroupCompletedEvent, orchestrationID),
			GroupID:   group.ID,
			Results:   results,
		})
	}

	return nil
}

// runSequential executes members one after another, recording each result
// before the next member starts.
func (e *Engine) runSequential(ctx context.Context, orchestrationID string, group *plan.ExecutionGroup) ([]models.ExecutionResult, error) {
	results := make([]models.ExecutionResult, 0, len(group.Actions))

	for _, action := range group.Actions {
		result := e.executeOne(ctx, orchestrationID, action)
		results = append(results, result)

		err := e.appendResults(ctx, orchestrationID, []models.ExecutionResult{result})
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// runParallel fans members out across goroutines and joins them at the group
// boundary. Completion order across members is unspecified; the results slice
// keeps member order.
func (e *Engine) runParallel(ctx context.Context, orchestrationID string, group *plan.ExecutionGroup) []models.ExecutionResult {
	results := make([]models.ExecutionResult, len(group.Actions))

	var wg sync.WaitGroup

	for i, action := range group.Actions {
		wg.Add(1)

		go func(i int, action *models.ActionNode) {
			defer wg.Done()

			results[i] = e.executeOne(ctx, orchestrationID, action)
		}(i, action)
	}

	wg.Wait()

	return results
}

// runConditional evaluates each member's predicate and executes qualifying
// members sequentially. Skipped members produce no result.
func (e *Engine) runConditional(ctx context.Context, logger *slog.Logger, orchestrationID string, group *plan.ExecutionGroup) ([]models.ExecutionResult, error) {
	results := make([]models.ExecutionResult, 0, len(group.Actions))

	for _, action := range group.Actions {
		data := e.contextData(ctx, action)

		if !e.EvaluateConditionalExecution(action, data) {
			logger.InfoContext(ctx, "Condition not met, skipping action",
				"action_id", action.ID, "condition", action.Condition)

			continue
		}

		results = append(results, e.executeOne(ctx, orchestrationID, action))
	}

	return results, nil
}

// contextData fetches the action's read-level context for predicate
// evaluation. Collaborator failures degrade to no data; they never abort
// the group.
func (e *Engine) contextData(ctx context.Context, action *models.ActionNode) map[string]contextaccess.Value {
	if e.contexts == nil {
		return nil
	}

	snapshot, err := e.contexts.NodeContext(ctx, action.ID, action.ParentNodeID, contextaccess.AccessLevelRead)
	if err != nil {
		e.logger.Warn("Context access failed during conditional evaluation",
			"action_id", action.ID, "error", err)

		return nil
	}

	return snapshot.Data
}

// executeOne runs a single action through the execution primitive. Every
// failure mode is folded into the returned ExecutionResult; executeOne never
// mutates shared state.
func (e *Engine) executeOne(ctx context.Context, orchestrationID string, action *models.ActionNode) models.ExecutionResult {
	started := time.Now().UTC()

	executing, err := action.WithStatus(models.ActionStatusExecuting)
	if err != nil {
		return e.failedResult(ctx, orchestrationID, action.ID, started, err)
	}

	var snapshot *contextaccess.Snapshot

	if e.contexts != nil {
		snapshot, err = e.contexts.NodeContext(ctx, executing.ID, executing.ParentNodeID, contextaccess.AccessLevelExecute)
		if err != nil {
			return e.failedResult(ctx, orchestrationID, action.ID, started, err)
		}
	}

	result, err := e.executor.ExecuteAction(ctx, &executing, snapshot)
	if err != nil {
		return e.failedResult(ctx, orchestrationID, action.ID, started, err)
	}

	if result == nil {
		return e.failedResult(ctx, orchestrationID, action.ID, started,
			fmt.Errorf("executor returned no result for action %s", action.ID))
	}

	if result.ActionID == "" {
		result.ActionID = action.ID
	}

	if result.Timestamp.IsZero() {
		result.Timestamp = started
	}

	if result.Duration == 0 {
		result.Duration = time.Since(started)
	}

	if result.Success {
		e.publish(ctx, orchestrationID, events.ActionCompleted{
			BaseEvent: events.NewBaseEvent(events.ActionCompletedEvent, orchestrationID),
			ActionID:  action.ID,
			Result:    *result,
		})
	} else {
		e.publish(ctx, orchestrationID, events.ActionFailed{
			BaseEvent: events.NewBaseEvent(events.ActionFailedEvent, orchestrationID),
			ActionID:  action.ID,
			Result:    *result,
		})
	}

	return *result
}

func (e *Engine) failedResult(ctx context.Context, orchestrationID, actionID string, started time.Time, cause error) models.ExecutionResult {
	result := models.ExecutionResult{
		ActionID:  actionID,
		Success:   false,
		Duration:  time.Since(started),
		Timestamp: started,
		Error:     cause.Error(),
	}

	e.publish(ctx, orchestrationID, events.ActionFailed{
		BaseEvent: events.NewBaseEvent(events.ActionFailedEvent, orchestrationID),
		ActionID:  actionID,
		Result:    result,
	})

	return result
}

func (e *Engine) appendResults(ctx context.Context, orchestrationID string, results []models.ExecutionResult) error {
	if len(results) == 0 {
		return nil
	}

	return e.store.Update(ctx, orchestrationID, func(state *State) error {
		state.Results = append(state.Results, results...)

		return nil
	})
}

// waitWhilePaused blocks until the orchestration is no longer paused. This is
// the only suspension point; pause never preempts in-flight group members.
func (e *Engine) waitWhilePaused(ctx context.Context, orchestrationID string) error {
	for {
		state, err := e.store.Get(ctx, orchestrationID)
		if err != nil {
			return err
		}

		if state.Status != StatusPaused {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.pausePoll):
		}
	}
}

// transition applies a pause/resume style status change under the state
// machine's rules.
func (e *Engine) transition(ctx context.Context, orchestrationID string, next Status) error {
	return e.store.Update(ctx, orchestrationID, func(state *State) error {
		if !state.Status.CanTransitionTo(next) {
			return &TransitionError{
				OrchestrationID: orchestrationID,
				From:            state.Status,
				To:              next,
			}
		}

		state.Status = next

		return nil
	})
}

func (e *Engine) complete(ctx context.Context, logger *slog.Logger, orchestrationID string) error {
	var completed events.OrchestrationCompleted

	err := e.store.Update(ctx, orchestrationID, func(state *State) error {
		if !state.Status.CanTransitionTo(StatusCompleted) {
			return &TransitionError{OrchestrationID: orchestrationID, From: state.Status, To: StatusCompleted}
		}

		end := time.Now().UTC()
		state.Status = StatusCompleted
		state.EndTime = &end

		completed = events.OrchestrationCompleted{
			BaseEvent:       events.NewBaseEvent(events.OrchestrationCompletedEvent, orchestrationID),
			CompletedGroups: append([]string(nil), state.CompletedGroups...),
			FailedGroups:    append([]string(nil), state.FailedGroups...),
			Duration:        end.Sub(state.StartTime),
		}

		return nil
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Orchestration completed")
	e.publish(ctx, orchestrationID, completed)

	return nil
}

// fail settles the orchestration into the failed state after a structural
// fault. Best effort: the underlying fault is what gets reported to the
// caller, not a bookkeeping error.
func (e *Engine) fail(ctx context.Context, logger *slog.Logger, orchestrationID string, cause error) {
	updateErr := e.store.Update(ctx, orchestrationID, func(state *State) error {
		if state.Status.IsTerminal() {
			return nil
		}

		end := time.Now().UTC()
		state.Status = StatusFailed
		state.EndTime = &end

		return nil
	})
	if updateErr != nil {
		logger.ErrorContext(ctx, "Failed to record orchestration failure", "error", updateErr)
	}

	logger.ErrorContext(ctx, "Orchestration failed", "error", cause)
	e.publish(ctx, orchestrationID, events.OrchestrationFailed{
		BaseEvent: events.NewBaseEvent(events.OrchestrationFailedEvent, orchestrationID),
		Error:     cause.Error(),
	})
}

// publish sends a lifecycle event when an event bus is configured.
func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	err := e.eventBus.Publish(ctx, key, event)
	if err != nil {
		e.logger.Error("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/modelflow/modelflow/pkg/events"
	"github.com/modelflow/modelflow/pkg/models"
)

// MaxAttemptsError reports a retry request for an action whose policy budget
// is spent. The execution primitive was never invoked.
type MaxAttemptsError struct {
	ActionID    string
	MaxAttempts int
}

func (e *MaxAttemptsError) Error() string {
	return fmt.Sprintf("action %s exceeded max retry attempts (%d)", e.ActionID, e.MaxAttempts)
}

func (e *MaxAttemptsError) Is(target error) bool {
	return target == ErrMaxAttemptsExceeded
}

// HandleActionRetry re-executes a failed action under its retry policy. The
// policy budget is checked before anything else; an exhausted policy returns
// a *MaxAttemptsError without touching the execution primitive. The retry
// attempt waits out the policy's backoff delay, runs the action and records
// the outcome in the orchestration's state. The updated node is returned so
// callers can carry its attempt counter forward.
func (e *Engine) HandleActionRetry(ctx context.Context, orchestrationID string, action *models.ActionNode) (models.ActionNode, models.ExecutionResult, error) {
	logger := e.logger.With("orchestration_id", orchestrationID, "action_id", action.ID)

	if action.RetryPolicy.Exhausted() {
		logger.Warn("Retry refused, policy exhausted",
			"max_attempts", action.RetryPolicy.MaxAttempts)

		return *action, models.ExecutionResult{}, &MaxAttemptsError{
			ActionID:    action.ID,
			MaxAttempts: action.RetryPolicy.MaxAttempts,
		}
	}

	// The failed -> retrying gate rejects retries of nodes that never failed.
	retrying, err := action.WithStatus(models.ActionStatusRetrying)
	if err != nil {
		return *action, models.ExecutionResult{}, fmt.Errorf("retry rejected: %w", err)
	}

	delay := retrying.RetryPolicy.NextDelay()
	retrying.RetryPolicy.CurrentAttempts++

	logger.InfoContext(ctx, "Retrying action",
		"attempt", retrying.RetryPolicy.CurrentAttempts,
		"max_attempts", retrying.RetryPolicy.MaxAttempts,
		"delay", delay)

	e.publish(ctx, orchestrationID, events.ActionRetrying{
		BaseEvent: events.NewBaseEvent(events.ActionRetryingEvent, orchestrationID),
		ActionID:  retrying.ID,
		Attempt:   retrying.RetryPolicy.CurrentAttempts,
		Delay:     delay,
	})

	if delay > 0 {
		select {
		case <-ctx.Done():
			return retrying, models.ExecutionResult{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	result := e.executeOne(ctx, orchestrationID, &retrying)

	appendErr := e.appendResults(ctx, orchestrationID, []models.ExecutionResult{result})
	if appendErr != nil {
		return retrying, result, appendErr
	}

	if result.Success {
		retrying, err = retrying.WithStatus(models.ActionStatusCompleted)
	} else {
		retrying, err = retrying.WithStatus(models.ActionStatusFailed)
	}

	if err != nil {
		return retrying, result, err
	}

	return retrying, result, nil
}

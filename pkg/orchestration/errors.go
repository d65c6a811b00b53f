package orchestration

import (
	"errors"
	"fmt"
)

// Standard orchestration error types.
var (
	// ErrOrchestrationNotFound indicates an unknown orchestration identifier.
	ErrOrchestrationNotFound = errors.New("orchestration not found")

	// ErrOrchestrationExists indicates an identifier collision at registration.
	ErrOrchestrationExists = errors.New("orchestration already exists")

	// ErrInvalidTransition indicates a pause/resume request from the wrong state.
	ErrInvalidTransition = errors.New("invalid orchestration state transition")

	// ErrMaxAttemptsExceeded indicates a retry was requested for an action
	// whose retry policy is exhausted; no execution was attempted.
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
)

// TransitionError reports an orchestration status change the state machine
// does not allow.
type TransitionError struct {
	OrchestrationID string
	From            Status
	To              Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("orchestration %s: cannot transition from %s to %s",
		e.OrchestrationID, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// IsNotFound checks if an error indicates an unknown orchestration.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrchestrationNotFound)
}

// IsInvalidTransition checks if an error indicates an illegal state change.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

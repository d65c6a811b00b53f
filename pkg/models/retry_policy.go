package models

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// BackoffStrategy selects how the delay between retry attempts grows.
type BackoffStrategy string

const (
	BackoffStrategyExponential BackoffStrategy = "exponential"
	BackoffStrategyFixed       BackoffStrategy = "fixed"
)

// RetryPolicy bounds retry attempts and the advisory delay between them.
type RetryPolicy struct {
	MaxAttempts     int             `json:"max_attempts"     validate:"gte=0"`
	CurrentAttempts int             `json:"current_attempts" validate:"gte=0"`
	BackoffStrategy BackoffStrategy `json:"backoff_strategy,omitempty"`
	BaseDelay       time.Duration   `json:"base_delay"`
	MaxDelay        time.Duration   `json:"max_delay"`
}

// Exhausted reports whether no further attempts are allowed.
func (p RetryPolicy) Exhausted() bool {
	return p.CurrentAttempts >= p.MaxAttempts
}

// NextDelay returns the wait before the next attempt, based on the number of
// attempts already made.
func (p RetryPolicy) NextDelay() time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}

	if p.BackoffStrategy == BackoffStrategyFixed {
		return p.BaseDelay
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.BaseDelay
	expo.RandomizationFactor = 0
	expo.Multiplier = 2

	if p.MaxDelay > 0 {
		expo.MaxInterval = p.MaxDelay
	}

	delay := expo.NextBackOff()
	for range p.CurrentAttempts {
		delay = expo.NextBackOff()
	}

	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	return delay
}

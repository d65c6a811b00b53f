// Package events defines event types for orchestration lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/modelflow/modelflow/pkg/models"
)

type EventType string

// Topic carries every orchestration lifecycle event.
const Topic = "modelflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Orchestration lifecycle events.
	OrchestrationStartedEvent   EventType = "orchestration.started"
	OrchestrationCompletedEvent EventType = "orchestration.completed"
	OrchestrationFailedEvent    EventType = "orchestration.failed"
	OrchestrationPausedEvent    EventType = "orchestration.paused"
	OrchestrationResumedEvent   EventType = "orchestration.resumed"

	// Group-level events.
	GroupCompletedEvent EventType = "group.completed"
	GroupFailedEvent    EventType = "group.failed"

	// Action-level events.
	ActionCompletedEvent EventType = "action.completed"
	ActionFailedEvent    EventType = "action.failed"
	ActionRetryingEvent  EventType = "action.retrying"
)

type BaseEvent struct {
	ID              string         `json:"id"`
	Type            EventType      `json:"type"`
	Timestamp       time.Time      `json:"timestamp"`
	OrchestrationID string         `json:"orchestration_id"`
	ContainerID     string         `json:"container_id,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, orchestrationID string) BaseEvent {
	return BaseEvent{
		ID:              uuid.New().String(),
		Type:            eventType,
		Timestamp:       time.Now().UTC(),
		OrchestrationID: orchestrationID,
	}
}

type OrchestrationStarted struct {
	BaseEvent

	GroupCount             int     `json:"group_count"`
	ActionCount            int     `json:"action_count"`
	TotalEstimatedDuration float64 `json:"total_estimated_duration_seconds"`
}

func (e OrchestrationStarted) GetType() EventType {
	return OrchestrationStartedEvent
}

type OrchestrationCompleted struct {
	BaseEvent

	CompletedGroups []string      `json:"completed_groups"`
	FailedGroups    []string      `json:"failed_groups,omitempty"`
	Duration        time.Duration `json:"duration"`
}

func (e OrchestrationCompleted) GetType() EventType {
	return OrchestrationCompletedEvent
}

type OrchestrationFailed struct {
	BaseEvent

	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e OrchestrationFailed) GetType() EventType {
	return OrchestrationFailedEvent
}

type OrchestrationPaused struct {
	BaseEvent
}

func (e OrchestrationPaused) GetType() EventType {
	return OrchestrationPausedEvent
}

type OrchestrationResumed struct {
	BaseEvent
}

func (e OrchestrationResumed) GetType() EventType {
	return OrchestrationResumedEvent
}

type GroupCompleted struct {
	BaseEvent

	GroupID string                   `json:"group_id"`
	Results []models.ExecutionResult `json:"results"`
}

func (e GroupCompleted) GetType() EventType {
	return GroupCompletedEvent
}

type GroupFailed struct {
	BaseEvent

	GroupID string                   `json:"group_id"`
	Results []models.ExecutionResult `json:"results"`
}

func (e GroupFailed) GetType() EventType {
	return GroupFailedEvent
}

type ActionCompleted struct {
	BaseEvent

	ActionID string                 `json:"action_id"`
	Result   models.ExecutionResult `json:"result"`
}

func (e ActionCompleted) GetType() EventType {
	return ActionCompletedEvent
}

type ActionFailed struct {
	BaseEvent

	ActionID string                 `json:"action_id"`
	Result   models.ExecutionResult `json:"result"`
}

func (e ActionFailed) GetType() EventType {
	return ActionFailedEvent
}

type ActionRetrying struct {
	BaseEvent

	ActionID string        `json:"action_id"`
	Attempt  int           `json:"attempt"`
	Delay    time.Duration `json:"delay"`
}

func (e ActionRetrying) GetType() EventType {
	return ActionRetryingEvent
}

package orchestration_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/modelflow/modelflow/pkg/eventbus"
	"github.com/modelflow/modelflow/pkg/events"
	"github.com/modelflow/modelflow/pkg/mocks"
	"github.com/modelflow/modelflow/pkg/orchestration"
	"github.com/modelflow/modelflow/pkg/testutil"
)

func TestEnginePublishesLifecycleEvents(t *testing.T) {
	t.Parallel()

	eventBus := &mocks.MockEventBus{}

	var (
		mu        sync.Mutex
		published []events.EventType
	)

	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			event, ok := args.Get(2).(eventbus.Event)
			require.True(t, ok)

			mu.Lock()
			published = append(published, event.GetType())
			mu.Unlock()
		}).
		Return(nil)

	executor := &stubExecutor{}
	engine, _ := newTestEngine(t, executor, orchestration.WithEventBus(eventBus))

	executionPlan := mustPlan(t, "container-1",
		testutil.CreateTestAction(testutil.WithID("a-1"), testutil.WithParent("container-1")),
	)

	_, err := engine.StartExecution(context.Background(), executionPlan)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []events.EventType{
		events.OrchestrationStartedEvent,
		events.ActionCompletedEvent,
		events.GroupCompletedEvent,
		events.OrchestrationCompletedEvent,
	}, published)

	eventBus.AssertExpectations(t)
}

func TestEnginePublishesFailureEvents(t *testing.T) {
	t.Parallel()

	eventBus := &mocks.MockEventBus{}

	var (
		mu        sync.Mutex
		published []events.EventType
	)

	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			event, ok := args.Get(2).(eventbus.Event)
			require.True(t, ok)

			mu.Lock()
			published = append(published, event.GetType())
			mu.Unlock()
		}).
		Return(nil)

	executor := &stubExecutor{failIDs: map[string]bool{"a-1": true}}
	engine, _ := newTestEngine(t, executor, orchestration.WithEventBus(eventBus))

	executionPlan := mustPlan(t, "container-1",
		testutil.CreateTestAction(testutil.WithID("a-1"), testutil.WithParent("container-1")),
	)

	_, err := engine.StartExecution(context.Background(), executionPlan)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []events.EventType{
		events.OrchestrationStartedEvent,
		events.ActionFailedEvent,
		events.GroupFailedEvent,
		events.OrchestrationCompletedEvent,
	}, published)
}

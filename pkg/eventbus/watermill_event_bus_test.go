package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/growloop/growloop/pkg/channels/gochannel"
	"github.com/growloop/growloop/pkg/eventbus"
	"github.com/growloop/growloop/pkg/events"
	"github.com/growloop/growloop/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestPublishDeliversToHandler(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)

	received := make(chan any, 1)
	require.NoError(t, bus.Handle(events.TaskCompletedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	published := events.TaskCompleted{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.TaskCompletedEvent,
			Timestamp: time.Now().UTC(),
			ProjectID: "proj-1",
		},
		TaskID:     "task-1",
		StepID:     "scan",
		WorkflowID: "wf-1",
		Status:     models.TaskStatusCompleted,
		DurationMs: 42,
	}
	require.NoError(t, bus.Publish(ctx, "task-1", published))

	select {
	case got := <-received:
		completed, ok := got.(*events.TaskCompleted)
		require.True(t, ok)
		assert.Equal(t, "task-1", completed.TaskID)
		assert.Equal(t, "proj-1", completed.ProjectID)
		assert.Equal(t, models.TaskStatusCompleted, completed.Status)
		assert.Equal(t, int64(42), completed.DurationMs)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}
}

func TestUnhandledEventTypesAreSkipped(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)

	received := make(chan any, 2)
	require.NoError(t, bus.Handle(events.EngagementReportedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler for workflow.completed: the message is acked and
	// dropped, not redelivered.
	require.NoError(t, bus.Publish(ctx, "wf-1", events.WorkflowCompleted{
		BaseEvent:  events.BaseEvent{ID: bus.GenerateID(), Type: events.WorkflowCompletedEvent},
		WorkflowID: "wf-1",
	}))

	require.NoError(t, bus.Publish(ctx, "job-1", events.EngagementReported{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.EngagementReportedEvent, ProjectID: "proj-1"},
		JobID:     "job-1",
		Metrics:   models.EngagementMetrics{Views: 10},
	}))

	select {
	case got := <-received:
		reported, ok := got.(*events.EngagementReported)
		require.True(t, ok)
		assert.Equal(t, "job-1", reported.JobID)
		assert.Equal(t, int64(10), reported.Metrics.Views)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event delivery")
	}

	assert.Empty(t, received)
}

func TestGenerateIDIsUnique(t *testing.T) {
	t.Parallel()

	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

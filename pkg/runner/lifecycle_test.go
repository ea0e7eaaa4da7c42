package runner_test

import (
	"context"
	"testing"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// advanceToReview runs the seeded workflow until select_targets parks in
// review_needed and returns that task's ID.
func advanceToReview(t *testing.T, ctx context.Context, env *testEnv) string {
	t.Helper()

	result, err := env.runner.Execute(ctx, "wf-1")
	require.NoError(t, err)

	_, _, err = env.runner.Lifecycle().ReportExtensionResult(ctx, result.TaskID, &models.StepResult{
		Output: map[string]any{"found_items": []any{map[string]any{"id": "post-1"}}},
	})
	require.NoError(t, err)

	result, err = env.runner.Execute(ctx, "wf-1")
	require.NoError(t, err)
	require.Equal(t, runner.ExecutionReviewNeeded, result.Status)

	return result.TaskID
}

func TestApproveTaskCompletesIt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	env.seedReplyWorkflow(t, ctx)

	taskID := advanceToReview(t, ctx, env)

	task, err := env.runner.Lifecycle().ApproveTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.NotNil(t, task.CompletedAt)

	stored, err := env.persistence.TaskRepository().GetByID(ctx, taskID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.TaskStatusCompleted, stored.Status)
}

func TestApproveTaskRequiresReviewNeeded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	env.seedReplyWorkflow(t, ctx)

	result, err := env.runner.Execute(ctx, "wf-1")
	require.NoError(t, err)
	require.Equal(t, runner.ExecutionExtensionQueued, result.Status)

	_, err = env.runner.Lifecycle().ApproveTask(ctx, result.TaskID)
	require.ErrorIs(t, err, runner.ErrIllegalTransition)
}

func TestRejectTaskRecordsReasonAndRetriesFresh(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	env.seedReplyWorkflow(t, ctx)

	taskID := advanceToReview(t, ctx, env)

	task, err := env.runner.Lifecycle().RejectTask(ctx, taskID, "off brand")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	assert.Equal(t, "off brand", task.ErrorMessage)

	// The rejected step resolves again on the next run, with a fresh
	// task row replacing the failed one.
	retry, err := env.runner.Execute(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "select", retry.StepID)
	assert.NotEqual(t, taskID, retry.TaskID)
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)

	task := &models.Task{
		ID:        "task-1",
		StepID:    "step-1",
		ProjectID: "proj-1",
		Status:    models.TaskStatusCompleted,
	}

	err := env.runner.Lifecycle().Transition(ctx, task, models.TaskStatusReviewNeeded, nil, "")
	require.ErrorIs(t, err, runner.ErrIllegalTransition)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
}

func TestReportExtensionResultFailureStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	env.seedReplyWorkflow(t, ctx)

	result, err := env.runner.Execute(ctx, "wf-1")
	require.NoError(t, err)

	task, duplicate, err := env.runner.Lifecycle().ReportExtensionResult(ctx, result.TaskID, &models.StepResult{
		Status: models.TaskStatusFailed,
		Output: map[string]any{"error": "feed unreachable"},
	})
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
}

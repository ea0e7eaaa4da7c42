package runner_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/growloop/growloop/pkg/cmd"
	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/persistence"
	"github.com/growloop/growloop/pkg/persistence/file"
	"github.com/growloop/growloop/pkg/protocol"
	"github.com/growloop/growloop/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type stubGenerator struct {
	calls atomic.Int64
	err   error
}

func (g *stubGenerator) GenerateContent(_ context.Context, _ protocol.PromptContext) (*protocol.GeneratedContent, error) {
	g.calls.Add(1)

	if g.err != nil {
		return nil, g.err
	}

	return &protocol.GeneratedContent{Content: "generated", Provider: "openai"}, nil
}

func (g *stubGenerator) GenerateBlueprint(_ context.Context, _ protocol.ProjectContext) (*models.Blueprint, error) {
	return nil, errors.New("not implemented")
}

type testEnv struct {
	persistence persistence.Persistence
	generator   *stubGenerator
	runner      *runner.Runner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")
	store := file.NewPersistence(t.TempDir())
	generator := &stubGenerator{}
	reg := cmd.NewRegistry(logger, generator, tracer)

	return &testEnv{
		persistence: store,
		generator:   generator,
		runner:      runner.NewRunner(store, reg, nil, nil, logger, tracer),
	}
}

// seedReplyWorkflow stores a project, pillar, and the canonical
// scan -> select -> reply engagement workflow.
func (e *testEnv) seedReplyWorkflow(t *testing.T, ctx context.Context) *models.Workflow {
	t.Helper()

	require.NoError(t, e.persistence.ProjectRepository().Save(ctx, &models.Project{
		ID:          "proj-1",
		Name:        "Acme Launch",
		Description: "Developer tool launch",
	}))

	require.NoError(t, e.persistence.PillarRepository().Save(ctx, &models.Pillar{
		ID:        "pillar-1",
		ProjectID: "proj-1",
		Name:      "Community",
		Platform:  "x",
	}))

	workflow := &models.Workflow{
		ID:        "wf-1",
		ProjectID: "proj-1",
		PillarID:  "pillar-1",
		Name:      "Engage on X",
		Steps: []*models.Step{
			{ID: "scan", WorkflowID: "wf-1", Type: models.StepScanFeed, Position: 1, Config: map[string]any{"limit": 5.0}},
			{ID: "select", WorkflowID: "wf-1", Type: models.StepSelectTargets, Position: 2},
			{ID: "reply", WorkflowID: "wf-1", Type: models.StepGenerateReplies, Position: 3},
		},
	}
	require.NoError(t, e.persistence.WorkflowRepository().Save(ctx, workflow))

	return workflow
}

func TestExecuteEndToEndExtensionFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	env.seedReplyWorkflow(t, ctx)

	result, err := env.runner.Execute(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, runner.ExecutionExtensionQueued, result.Status)
	assert.Equal(t, "scan", result.StepID)
	require.NotEmpty(t, result.TaskID)

	// Re-executing while the scan is still queued resolves the same
	// step and reuses the same task row.
	again, err := env.runner.Execute(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, result.TaskID, again.TaskID)

	_, duplicate, err := env.runner.Lifecycle().ReportExtensionResult(ctx, result.TaskID, &models.StepResult{
		Output: map[string]any{
			"found_items": []any{
				map[string]any{"id": "post-1"},
				map[string]any{"id": "post-2"},
			},
			"is_mock": true,
		},
	})
	require.NoError(t, err)
	assert.False(t, duplicate)

	result, err = env.runner.Execute(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, runner.ExecutionReviewNeeded, result.Status)
	assert.Equal(t, "select", result.StepID)

	selected, ok := result.Output["selected_items"].([]any)
	require.True(t, ok)
	assert.Len(t, selected, 2)
	assert.Equal(t, true, result.Output["is_mock"])

	result, err = env.runner.Execute(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, runner.ExecutionReviewNeeded, result.Status)
	assert.Equal(t, "reply", result.StepID)

	replies, ok := result.Output["replies"].([]any)
	require.True(t, ok)
	require.Len(t, replies, 2)

	first, ok := replies[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "[simulated reply to post-1]", first["content"])

	// Mock data from the extension must never spend provider quota.
	assert.Equal(t, int64(0), env.generator.calls.Load())

	result, err = env.runner.Execute(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, runner.ExecutionCompleted, result.Status)
	assert.Empty(t, result.TaskID)
}

func TestReportExtensionResultDuplicateKeepsLastSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	env.seedReplyWorkflow(t, ctx)

	result, err := env.runner.Execute(ctx, "wf-1")
	require.NoError(t, err)

	_, duplicate, err := env.runner.Lifecycle().ReportExtensionResult(ctx, result.TaskID, &models.StepResult{
		Output: map[string]any{"found_items": []any{map[string]any{"id": "post-1"}}},
	})
	require.NoError(t, err)
	assert.False(t, duplicate)

	_, duplicate, err = env.runner.Lifecycle().ReportExtensionResult(ctx, result.TaskID, &models.StepResult{
		Output: map[string]any{"found_items": []any{
			map[string]any{"id": "post-1"},
			map[string]any{"id": "post-2"},
			map[string]any{"id": "post-3"},
		}},
	})
	require.NoError(t, err)
	assert.True(t, duplicate)

	task, err := env.persistence.TaskRepository().GetByID(ctx, result.TaskID)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, models.TaskStatusReviewNeeded, task.Status)

	found, ok := task.OutputData["found_items"].([]any)
	require.True(t, ok)
	assert.Len(t, found, 3)
}

func TestRerunCreatesFreshTaskRowAndRepointsStep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	env.seedReplyWorkflow(t, ctx)

	result, err := env.runner.Execute(ctx, "wf-1")
	require.NoError(t, err)

	_, _, err = env.runner.Lifecycle().ReportExtensionResult(ctx, result.TaskID, &models.StepResult{
		Output: map[string]any{"found_items": []any{map[string]any{"id": "post-1"}}},
	})
	require.NoError(t, err)

	rerun, err := env.runner.Rerun(ctx, "wf-1", "scan")
	require.NoError(t, err)
	assert.Equal(t, runner.ExecutionExtensionQueued, rerun.Status)
	assert.NotEqual(t, result.TaskID, rerun.TaskID)

	workflow, err := env.persistence.WorkflowRepository().GetByID(ctx, "wf-1")
	require.NoError(t, err)

	step := workflow.StepByID("scan")
	require.NotNil(t, step)
	require.NotNil(t, step.CurrentTaskID)
	assert.Equal(t, rerun.TaskID, *step.CurrentTaskID)

	// The superseded row stays in the task log untouched.
	history, err := env.persistence.TaskRepository().ListByStep(ctx, "scan")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	old, err := env.persistence.TaskRepository().GetByID(ctx, result.TaskID)
	require.NoError(t, err)
	require.NotNil(t, old)
	assert.Equal(t, models.TaskStatusReviewNeeded, old.Status)
}

func TestRerunBlockedByUnmetDependencies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	env.seedReplyWorkflow(t, ctx)

	_, err := env.runner.Rerun(ctx, "wf-1", "reply")
	require.Error(t, err)
	require.True(t, runner.IsWorkflowBlocked(err))

	var blocked *runner.WorkflowBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "reply", blocked.StepID)
	assert.Equal(t, []string{"select"}, blocked.BlockedBy)
}

func TestRerunUnknownStep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)
	env.seedReplyWorkflow(t, ctx)

	_, err := env.runner.Rerun(ctx, "wf-1", "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsStepNotFound(err))
}

func TestExecuteUnknownWorkflow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.runner.Execute(ctx, "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestExecuteBlockedByExplicitDependency(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.persistence.ProjectRepository().Save(ctx, &models.Project{
		ID:   "proj-1",
		Name: "Acme Launch",
	}))

	workflow := &models.Workflow{
		ID:        "wf-gated",
		ProjectID: "proj-1",
		PillarID:  "pillar-1",
		Name:      "Gated flow",
		Steps: []*models.Step{
			{ID: "gate", WorkflowID: "wf-gated", Type: models.StepReviewContent, Position: 1, DependencyIDs: []string{"later"}},
			{ID: "later", WorkflowID: "wf-gated", Type: models.StepSelectTargets, Position: 2},
		},
	}
	require.NoError(t, env.persistence.WorkflowRepository().Save(ctx, workflow))

	_, err := env.runner.Execute(ctx, "wf-gated")
	require.Error(t, err)

	var blocked *runner.WorkflowBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, "gate", blocked.StepID)
	assert.Equal(t, []string{"later"}, blocked.BlockedBy)
}

func TestExecuteHandlerFailureRecordsFailedTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.persistence.ProjectRepository().Save(ctx, &models.Project{
		ID:   "proj-1",
		Name: "Acme Launch",
	}))

	// generate_replies with no upstream selection fails synchronously.
	workflow := &models.Workflow{
		ID:        "wf-bad",
		ProjectID: "proj-1",
		PillarID:  "",
		Name:      "Broken flow",
		Steps: []*models.Step{
			{ID: "reply", WorkflowID: "wf-bad", Type: models.StepGenerateReplies, Position: 1},
		},
	}
	require.NoError(t, env.persistence.WorkflowRepository().Save(ctx, workflow))

	result, err := env.runner.Execute(ctx, "wf-bad")
	require.NoError(t, err)
	assert.Equal(t, runner.ExecutionFailed, result.Status)
	assert.NotEmpty(t, result.Error)

	task, err := env.persistence.TaskRepository().GetByID(ctx, result.TaskID)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	assert.NotEmpty(t, task.ErrorMessage)
	assert.NotNil(t, task.CompletedAt)

	// A failed current task does not wedge the workflow: the next run
	// resolves the step again with a fresh row.
	retry, err := env.runner.Execute(ctx, "wf-bad")
	require.NoError(t, err)
	assert.Equal(t, runner.ExecutionFailed, retry.Status)
	assert.NotEqual(t, result.TaskID, retry.TaskID)
}

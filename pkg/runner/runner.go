// Package runner executes workflows one resolved step at a time: it
// loads state, resolves the next step, dispatches its handler, and
// persists the outcome through the task lifecycle.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/growloop/growloop/pkg/eventbus"
	"github.com/growloop/growloop/pkg/events"
	"github.com/growloop/growloop/pkg/lock"
	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/otelhelper"
	"github.com/growloop/growloop/pkg/persistence"
	"github.com/growloop/growloop/pkg/registry"
	"github.com/growloop/growloop/pkg/resolver"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ExecutionStatus is the outcome of one Execute call, as reported to the
// API caller.
type ExecutionStatus string

const (
	ExecutionCompleted        ExecutionStatus = "completed"
	ExecutionReviewNeeded     ExecutionStatus = "review_needed"
	ExecutionAwaitingApproval ExecutionStatus = "awaiting_approval"
	ExecutionExtensionQueued  ExecutionStatus = "extension_queued"
	ExecutionFailed           ExecutionStatus = "failed"
)

// ExecutionResult describes what one Execute call did. Status is
// "completed" with an empty TaskID when every step was already done.
type ExecutionResult struct {
	Status ExecutionStatus `json:"status"`
	TaskID string          `json:"task_id,omitempty"`
	StepID string          `json:"step_id,omitempty"`
	Output map[string]any  `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Runner advances workflows. It holds no per-workflow state; the store
// is the only shared resource, so any number of runners may coexist.
type Runner struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	lifecycle   *Lifecycle
	locker      lock.Locker
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
}

func NewRunner(p persistence.Persistence, reg *registry.Registry, locker lock.Locker, publisher eventbus.EventPublisher, logger *slog.Logger, tracer trace.Tracer) *Runner {
	if locker == nil {
		locker = lock.NewNoop()
	}

	return &Runner{
		persistence: p,
		registry:    reg,
		lifecycle:   NewLifecycle(p, publisher, logger),
		locker:      locker,
		publisher:   publisher,
		logger:      logger,
		tracer:      tracer,
	}
}

// Lifecycle exposes the task lifecycle manager, used by the API layer
// for approvals and extension results.
func (r *Runner) Lifecycle() *Lifecycle {
	return r.lifecycle
}

// Execute advances the workflow by one step. A nil resolution means the
// workflow is complete; a blocked resolution is an error, not a task.
func (r *Runner) Execute(ctx context.Context, workflowID string) (*ExecutionResult, error) {
	workflow, tasks, err := r.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	resolution := resolver.Resolve(workflow, tasks)
	if resolution == nil {
		r.publishWorkflowCompleted(ctx, workflow)

		return &ExecutionResult{Status: ExecutionCompleted}, nil
	}

	if !resolution.CanExecute {
		return nil, &WorkflowBlockedError{
			StepID:    resolution.Step.ID,
			BlockedBy: resolution.BlockedBy,
		}
	}

	return r.executeStep(ctx, workflow, resolution.Step, resolution.CompletedDependencies, tasks, false)
}

// Rerun forces a fresh task row for the given step and executes it,
// regardless of the step's current done state. Its dependencies must
// still be satisfied.
func (r *Runner) Rerun(ctx context.Context, workflowID, stepID string) (*ExecutionResult, error) {
	workflow, tasks, err := r.loadWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	step := workflow.StepByID(stepID)
	if step == nil {
		return nil, persistence.NewStoreError("Rerun", "step", stepID, persistence.ErrStepNotFound)
	}

	completed, blocked := r.dependencyState(workflow, step, tasks)
	if len(blocked) > 0 {
		return nil, &WorkflowBlockedError{StepID: step.ID, BlockedBy: blocked}
	}

	return r.executeStep(ctx, workflow, step, completed, tasks, true)
}

func (r *Runner) executeStep(ctx context.Context, workflow *models.Workflow, step *models.Step, completedDeps []string, tasks []*models.Task, rerun bool) (*ExecutionResult, error) {
	release, err := r.locker.Acquire(ctx, workflow.ID+":"+step.ID)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, fmt.Errorf("%w: step %s", ErrStepLocked, step.ID)
		}

		return nil, err
	}

	defer func() {
		if releaseErr := release(ctx); releaseErr != nil {
			r.logger.WarnContext(ctx, "Failed to release step lock",
				"step_id", step.ID, "error", releaseErr)
		}
	}()

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "runner.execute_step",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.StepIDKey, step.ID),
		attribute.String(otelhelper.StepTypeKey, string(step.Type)),
	)
	defer span.End()

	task, err := r.lifecycle.EnsureCurrentTask(ctx, workflow, step, rerun)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.TaskIDKey, task.ID))

	executionCtx, err := r.buildExecutionContext(ctx, workflow, step, task, completedDeps, tasks)
	if err != nil {
		return r.failTask(ctx, task, step, err)
	}

	handler, err := r.registry.CreateHandler(step.Type, step.Config)
	if err != nil {
		return r.failTask(ctx, task, step, err)
	}

	result, err := handler.Execute(ctx, *executionCtx, r.logger)
	if err != nil {
		otelhelper.SetError(span, err)

		return r.failTask(ctx, task, step, err)
	}

	if err := r.lifecycle.Transition(ctx, task, result.Status, result.Output, ""); err != nil {
		return nil, err
	}

	return &ExecutionResult{
		Status: executionStatus(result),
		TaskID: task.ID,
		StepID: step.ID,
		Output: result.Output,
	}, nil
}

// failTask marks the task failed with the handler error. The workflow
// stays resolvable: the failed step is resolved again next time and a
// fresh task row is created for the retry.
func (r *Runner) failTask(ctx context.Context, task *models.Task, step *models.Step, cause error) (*ExecutionResult, error) {
	r.logger.ErrorContext(ctx, "Step execution failed",
		"step_id", step.ID, "step_type", step.Type, "task_id", task.ID, "error", cause)

	if err := r.lifecycle.Transition(ctx, task, models.TaskStatusFailed, nil, cause.Error()); err != nil {
		return nil, err
	}

	return &ExecutionResult{
		Status: ExecutionFailed,
		TaskID: task.ID,
		StepID: step.ID,
		Error:  cause.Error(),
	}, nil
}

func (r *Runner) loadWorkflow(ctx context.Context, workflowID string) (*models.Workflow, []*models.Task, error) {
	workflow, err := r.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}

	if workflow == nil {
		return nil, nil, persistence.NewStoreError("Execute", "workflow", workflowID, persistence.ErrWorkflowNotFound)
	}

	tasks, err := r.persistence.TaskRepository().ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, nil, err
	}

	return workflow, tasks, nil
}

// buildExecutionContext assembles everything the handler sees: project,
// pillar, workflow and step config, and the chained output of the most
// recent completed dependency.
func (r *Runner) buildExecutionContext(ctx context.Context, workflow *models.Workflow, step *models.Step, task *models.Task, completedDeps []string, tasks []*models.Task) (*models.ExecutionContext, error) {
	project, err := r.persistence.ProjectRepository().GetByID(ctx, workflow.ProjectID)
	if err != nil {
		return nil, err
	}

	var pillar *models.Pillar

	if workflow.PillarID != "" {
		pillar, err = r.persistence.PillarRepository().GetByID(ctx, workflow.PillarID)
		if err != nil {
			return nil, err
		}
	}

	return &models.ExecutionContext{
		TaskID:         task.ID,
		WorkflowID:     workflow.ID,
		ProjectID:      workflow.ProjectID,
		Project:        project,
		Pillar:         pillar,
		WorkflowConfig: workflow.Config,
		StepConfig:     step.Config,
		ChainedInput:   chainedInput(workflow, completedDeps, tasks),
	}, nil
}

// chainedInput returns the output of the last completed dependency, or
// nil for a step with none.
func chainedInput(workflow *models.Workflow, completedDeps []string, tasks []*models.Task) map[string]any {
	if len(completedDeps) == 0 {
		return nil
	}

	byID := make(map[string]*models.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}

	depStep := workflow.StepByID(completedDeps[len(completedDeps)-1])
	if depStep == nil || depStep.CurrentTaskID == nil {
		return nil
	}

	depTask, ok := byID[*depStep.CurrentTaskID]
	if !ok {
		return nil
	}

	return depTask.OutputData
}

// dependencyState splits a step's effective dependencies into done and
// not-done, mirroring what resolution reports for the next step.
func (r *Runner) dependencyState(workflow *models.Workflow, step *models.Step, tasks []*models.Task) (completed, blocked []string) {
	deps := resolver.Dependencies(workflow, step)
	done := resolver.DoneSteps(workflow.Steps, tasks)

	for _, depID := range deps {
		if done[depID] {
			completed = append(completed, depID)
		} else {
			blocked = append(blocked, depID)
		}
	}

	return completed, blocked
}

// executionStatus maps a handler result to the API-facing status. A
// review_needed result from an approval-gate step reads as
// awaiting_approval.
func executionStatus(result *models.StepResult) ExecutionStatus {
	switch result.Status {
	case models.TaskStatusCompleted:
		return ExecutionCompleted
	case models.TaskStatusExtensionQueued:
		return ExecutionExtensionQueued
	case models.TaskStatusFailed:
		return ExecutionFailed
	case models.TaskStatusReviewNeeded:
		if awaiting, ok := result.Output["awaiting_approval"].(bool); ok && awaiting {
			return ExecutionAwaitingApproval
		}

		return ExecutionReviewNeeded
	case models.TaskStatusInProgress:
	}

	return ExecutionStatus(result.Status)
}

func (r *Runner) publishWorkflowCompleted(ctx context.Context, workflow *models.Workflow) {
	if r.publisher == nil {
		return
	}

	event := events.WorkflowCompleted{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.WorkflowCompletedEvent,
			Timestamp: time.Now().UTC(),
			ProjectID: workflow.ProjectID,
		},
		WorkflowID: workflow.ID,
		StepCount:  len(workflow.Steps),
	}

	if err := r.publisher.Publish(ctx, workflow.ID, event); err != nil {
		r.logger.WarnContext(ctx, "Failed to publish audit event",
			"event_type", event.GetType(), "error", err)
	}
}

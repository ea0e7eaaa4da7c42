package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/growloop/growloop/pkg/eventbus"
	"github.com/growloop/growloop/pkg/events"
	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/persistence"
)

// legalTransitions maps a task status to the statuses it may move to.
// in_progress is re-entered through EnsureCurrentTask, never through
// Transition. review_needed -> review_needed covers duplicate extension
// reports, where the later snapshot wins.
var legalTransitions = map[models.TaskStatus][]models.TaskStatus{
	models.TaskStatusInProgress: {
		models.TaskStatusCompleted,
		models.TaskStatusReviewNeeded,
		models.TaskStatusExtensionQueued,
		models.TaskStatusFailed,
	},
	models.TaskStatusExtensionQueued: {
		models.TaskStatusReviewNeeded,
		models.TaskStatusFailed,
	},
	models.TaskStatusReviewNeeded: {
		models.TaskStatusReviewNeeded,
		models.TaskStatusCompleted,
		models.TaskStatusFailed,
	},
}

// Lifecycle owns task status changes. Tasks are an append-only history
// per step; only the row referenced by Step.CurrentTaskID represents the
// step's present state.
type Lifecycle struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

func NewLifecycle(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Lifecycle {
	return &Lifecycle{
		persistence: p,
		publisher:   publisher,
		logger:      logger,
	}
}

// EnsureCurrentTask returns the in_progress task representing the step's
// execution. Forward advancement reuses the existing current row; an
// explicit rerun or a prior failed attempt gets a fresh row, and the
// step's current-task pointer moves to it. The superseded row stays in
// the task log untouched.
func (l *Lifecycle) EnsureCurrentTask(ctx context.Context, workflow *models.Workflow, step *models.Step, rerun bool) (*models.Task, error) {
	var current *models.Task

	if step.CurrentTaskID != nil {
		task, err := l.persistence.TaskRepository().GetByID(ctx, *step.CurrentTaskID)
		if err != nil {
			return nil, err
		}

		current = task
	}

	if current != nil && !rerun && current.Status != models.TaskStatusFailed {
		current.Status = models.TaskStatusInProgress
		current.ErrorMessage = ""
		current.CompletedAt = nil

		if err := l.persistence.TaskRepository().Save(ctx, current); err != nil {
			return nil, err
		}

		l.publishTaskStarted(ctx, workflow, step, current)

		return current, nil
	}

	task := &models.Task{
		ID:         uuid.New().String(),
		StepID:     step.ID,
		WorkflowID: workflow.ID,
		ProjectID:  workflow.ProjectID,
		Status:     models.TaskStatusInProgress,
	}

	if err := l.persistence.TaskRepository().Save(ctx, task); err != nil {
		return nil, err
	}

	step.CurrentTaskID = &task.ID
	if err := l.persistence.WorkflowRepository().SaveStep(ctx, step); err != nil {
		return nil, err
	}

	l.publishTaskStarted(ctx, workflow, step, task)

	return task, nil
}

// Transition moves a task to a new status, stamps CompletedAt on
// terminal states, persists, and emits the matching audit event.
func (l *Lifecycle) Transition(ctx context.Context, task *models.Task, status models.TaskStatus, output map[string]any, errMsg string) error {
	if !transitionAllowed(task.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, task.Status, status)
	}

	task.Status = status
	task.OutputData = output
	task.ErrorMessage = errMsg

	if status.Terminal() {
		now := time.Now().UTC()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}

	if err := l.persistence.TaskRepository().Save(ctx, task); err != nil {
		return err
	}

	l.publishTransition(ctx, task)

	return nil
}

// ReportExtensionResult applies an external worker's result to a queued
// task. It is idempotent: a duplicate report arriving after the task
// already moved to review_needed overwrites the output and succeeds.
func (l *Lifecycle) ReportExtensionResult(ctx context.Context, taskID string, result *models.StepResult) (*models.Task, bool, error) {
	task, err := l.persistence.TaskRepository().GetByID(ctx, taskID)
	if err != nil {
		return nil, false, err
	}

	if task == nil {
		return nil, false, persistence.NewStoreError("ReportExtensionResult", "task", taskID, persistence.ErrTaskNotFound)
	}

	status := result.Status
	if status == "" {
		status = models.TaskStatusReviewNeeded
	}

	duplicate := task.Status == models.TaskStatusReviewNeeded

	if err := l.Transition(ctx, task, status, result.Output, ""); err != nil {
		return nil, false, err
	}

	l.publishEvent(ctx, task.ID, events.ExtensionResult{
		BaseEvent: l.baseEvent(events.ExtensionResultEvent, task.ProjectID),
		TaskID:    task.ID,
		Status:    task.Status,
		Duplicate: duplicate,
	})

	return task, duplicate, nil
}

// ApproveTask moves a review_needed task to completed, unblocking
// downstream steps that chain against its output.
func (l *Lifecycle) ApproveTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := l.reviewedTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := l.Transition(ctx, task, models.TaskStatusCompleted, task.OutputData, ""); err != nil {
		return nil, err
	}

	return task, nil
}

// RejectTask moves a review_needed task to failed. A later rerun creates
// a fresh attempt.
func (l *Lifecycle) RejectTask(ctx context.Context, taskID, reason string) (*models.Task, error) {
	task, err := l.reviewedTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := l.Transition(ctx, task, models.TaskStatusFailed, task.OutputData, reason); err != nil {
		return nil, err
	}

	return task, nil
}

func (l *Lifecycle) reviewedTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := l.persistence.TaskRepository().GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task == nil {
		return nil, persistence.NewStoreError("reviewedTask", "task", taskID, persistence.ErrTaskNotFound)
	}

	if task.Status != models.TaskStatusReviewNeeded {
		return nil, fmt.Errorf("%w: task %s is %s, expected %s",
			ErrIllegalTransition, taskID, task.Status, models.TaskStatusReviewNeeded)
	}

	return task, nil
}

func transitionAllowed(from, to models.TaskStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}

func (l *Lifecycle) publishTaskStarted(ctx context.Context, workflow *models.Workflow, step *models.Step, task *models.Task) {
	l.publishEvent(ctx, task.ID, events.TaskStarted{
		BaseEvent:  l.baseEvent(events.TaskStartedEvent, task.ProjectID),
		TaskID:     task.ID,
		StepID:     step.ID,
		StepType:   step.Type,
		WorkflowID: workflow.ID,
	})
}

func (l *Lifecycle) publishTransition(ctx context.Context, task *models.Task) {
	switch task.Status {
	case models.TaskStatusCompleted, models.TaskStatusReviewNeeded:
		l.publishEvent(ctx, task.ID, events.TaskCompleted{
			BaseEvent:  l.baseEvent(events.TaskCompletedEvent, task.ProjectID),
			TaskID:     task.ID,
			StepID:     task.StepID,
			WorkflowID: task.WorkflowID,
			Status:     task.Status,
			DurationMs: time.Since(task.CreatedAt).Milliseconds(),
		})
	case models.TaskStatusFailed:
		l.publishEvent(ctx, task.ID, events.TaskFailed{
			BaseEvent:  l.baseEvent(events.TaskFailedEvent, task.ProjectID),
			TaskID:     task.ID,
			StepID:     task.StepID,
			WorkflowID: task.WorkflowID,
			Error:      task.ErrorMessage,
		})
	case models.TaskStatusExtensionQueued:
		platform, _ := task.OutputData["platform"].(string)

		l.publishEvent(ctx, task.ID, events.TaskExtensionQueued{
			BaseEvent:  l.baseEvent(events.TaskExtensionQueuedEvent, task.ProjectID),
			TaskID:     task.ID,
			StepID:     task.StepID,
			WorkflowID: task.WorkflowID,
			Platform:   platform,
		})
	case models.TaskStatusInProgress:
	}
}

// publishEvent emits an audit event. Audit is best effort: publish
// failures are logged and never fail the task they describe.
func (l *Lifecycle) publishEvent(ctx context.Context, key string, event eventbus.Event) {
	if l.publisher == nil {
		return
	}

	if err := l.publisher.Publish(ctx, key, event); err != nil {
		l.logger.WarnContext(ctx, "Failed to publish audit event",
			"event_type", event.GetType(), "error", err)
	}
}

func (l *Lifecycle) baseEvent(eventType events.EventType, projectID string) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ProjectID: projectID,
	}
}

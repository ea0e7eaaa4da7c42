package models

import "time"

// TaskStatus is the lifecycle state of a task. A step with no task row
// is implicitly pending.
type TaskStatus string

const (
	TaskStatusInProgress      TaskStatus = "in_progress"
	TaskStatusCompleted       TaskStatus = "completed"
	TaskStatusReviewNeeded    TaskStatus = "review_needed"
	TaskStatusExtensionQueued TaskStatus = "extension_queued"
	TaskStatusFailed          TaskStatus = "failed"
)

// Done reports whether the status counts as done for step sequencing.
// review_needed counts: the output exists and downstream steps may chain
// against it once approved; approval gating is a dispatch/UI concern.
func (s TaskStatus) Done() bool {
	return s == TaskStatusCompleted || s == TaskStatusReviewNeeded
}

// Terminal reports whether the status ends this task instance. A failed
// task is terminal for the instance but not for the step: a fresh task
// may be created on retry.
func (s TaskStatus) Terminal() bool {
	return s.Done() || s == TaskStatusFailed
}

// Task is one concrete execution attempt for a step. Tasks are an
// append-only history; the current one is referenced by the owning
// step's CurrentTaskID.
type Task struct {
	ID           string         `json:"id"`
	StepID       string         `json:"step_id"    validate:"required"`
	WorkflowID   string         `json:"workflow_id"`
	ProjectID    string         `json:"project_id" validate:"required"`
	Status       TaskStatus     `json:"status"     validate:"required"`
	OutputData   map[string]any `json:"output_data,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// StepResult is the descriptor a step handler returns. Dispatch performs
// no persistence; the lifecycle manager persists the result.
type StepResult struct {
	Status TaskStatus     `json:"status"`
	Output map[string]any `json:"output,omitempty"`
}

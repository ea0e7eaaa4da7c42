// Package web provides the HTTP handlers for workflow execution, the
// extension worker protocol, and engagement tracking.
package web

import (
	"github.com/growloop/growloop/pkg/models"
)

// ExtensionResultRequest is the external worker's report for a queued
// task.
type ExtensionResultRequest struct {
	TaskID string         `json:"task_id" validate:"required"`
	Status string         `json:"status"  validate:"omitempty,oneof=review_needed failed"`
	Result map[string]any `json:"result"`
}

// RejectTaskRequest carries the reviewer's reason for rejecting a task.
type RejectTaskRequest struct {
	Reason string `json:"reason"`
}

// CreateEngagementJobRequest is the request body for tracking a posted
// piece of content.
type CreateEngagementJobRequest struct {
	TargetURL    string `json:"target_url"     validate:"required,url"`
	SourceTaskID string `json:"source_task_id"`
	DurationDays int    `json:"duration_days"  validate:"required,min=1"`
	PollSchedule string `json:"poll_schedule"`
}

// ReportMetricsRequest is the worker's metrics snapshot for a tracked
// item. The snapshot replaces the stored one as-is.
type ReportMetricsRequest struct {
	Views   int64 `json:"views"   validate:"min=0"`
	Likes   int64 `json:"likes"   validate:"min=0"`
	Replies int64 `json:"replies" validate:"min=0"`
	Reposts int64 `json:"reposts" validate:"min=0"`
}

// ExtensionTaskResponse is one queued task served to the polling worker.
type ExtensionTaskResponse struct {
	ID         string         `json:"id"`
	StepID     string         `json:"step_id"`
	WorkflowID string         `json:"workflow_id"`
	ProjectID  string         `json:"project_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// TransformExtensionTask shapes a queued task for the worker, exposing
// the step output as the work payload.
func TransformExtensionTask(task *models.Task) ExtensionTaskResponse {
	return ExtensionTaskResponse{
		ID:         task.ID,
		StepID:     task.StepID,
		WorkflowID: task.WorkflowID,
		ProjectID:  task.ProjectID,
		Payload:    task.OutputData,
	}
}

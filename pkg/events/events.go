// Package events defines the audit events emitted while tasks and
// engagement jobs move through their lifecycles.
package events

import (
	"time"

	"github.com/growloop/growloop/pkg/models"
)

type EventType string

// Kafka topic for the audit stream.
const Topic = "growloop.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Task lifecycle events.
	TaskStartedEvent         EventType = "task.started"
	TaskCompletedEvent       EventType = "task.completed"
	TaskFailedEvent          EventType = "task.failed"
	TaskExtensionQueuedEvent EventType = "task.extension_queued"
	ExtensionResultEvent     EventType = "task.extension_result"

	// Workflow lifecycle events.
	WorkflowCompletedEvent EventType = "workflow.completed"

	// Engagement job events.
	EngagementJobCreatedEvent EventType = "engagement.created"
	EngagementReportedEvent   EventType = "engagement.reported"
	EngagementJobStoppedEvent EventType = "engagement.stopped"
	EngagementJobExpiredEvent EventType = "engagement.expired"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	ProjectID string         `json:"project_id"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type TaskStarted struct {
	BaseEvent

	TaskID     string          `json:"task_id"`
	StepID     string          `json:"step_id"`
	StepType   models.StepType `json:"step_type"`
	WorkflowID string          `json:"workflow_id"`
}

func (e TaskStarted) GetType() EventType {
	return TaskStartedEvent
}

type TaskCompleted struct {
	BaseEvent

	TaskID     string            `json:"task_id"`
	StepID     string            `json:"step_id"`
	WorkflowID string            `json:"workflow_id"`
	Status     models.TaskStatus `json:"status"`
	DurationMs int64             `json:"duration_ms"`
}

func (e TaskCompleted) GetType() EventType {
	return TaskCompletedEvent
}

type TaskFailed struct {
	BaseEvent

	TaskID     string `json:"task_id"`
	StepID     string `json:"step_id"`
	WorkflowID string `json:"workflow_id"`
	Error      string `json:"error"`
}

func (e TaskFailed) GetType() EventType {
	return TaskFailedEvent
}

type TaskExtensionQueued struct {
	BaseEvent

	TaskID     string `json:"task_id"`
	StepID     string `json:"step_id"`
	WorkflowID string `json:"workflow_id"`
	Platform   string `json:"platform,omitempty"`
}

func (e TaskExtensionQueued) GetType() EventType {
	return TaskExtensionQueuedEvent
}

type ExtensionResult struct {
	BaseEvent

	TaskID    string            `json:"task_id"`
	Status    models.TaskStatus `json:"status"`
	Duplicate bool              `json:"duplicate"`
}

func (e ExtensionResult) GetType() EventType {
	return ExtensionResultEvent
}

type WorkflowCompleted struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
	StepCount  int    `json:"step_count"`
}

func (e WorkflowCompleted) GetType() EventType {
	return WorkflowCompletedEvent
}

type EngagementJobCreated struct {
	BaseEvent

	JobID     string    `json:"job_id"`
	TaskID    string    `json:"task_id,omitempty"`
	TargetURL string    `json:"target_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e EngagementJobCreated) GetType() EventType {
	return EngagementJobCreatedEvent
}

type EngagementReported struct {
	BaseEvent

	JobID   string                   `json:"job_id"`
	Metrics models.EngagementMetrics `json:"metrics"`
}

func (e EngagementReported) GetType() EventType {
	return EngagementReportedEvent
}

type EngagementJobStopped struct {
	BaseEvent

	JobID string `json:"job_id"`
}

func (e EngagementJobStopped) GetType() EventType {
	return EngagementJobStoppedEvent
}

type EngagementJobExpired struct {
	BaseEvent

	JobID     string    `json:"job_id"`
	ExpiredAt time.Time `json:"expired_at"`
}

func (e EngagementJobExpired) GetType() EventType {
	return EngagementJobExpiredEvent
}

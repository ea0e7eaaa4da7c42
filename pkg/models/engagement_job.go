package models

import "time"

// EngagementJobStatus is the lifecycle state of an engagement job.
type EngagementJobStatus string

const (
	EngagementJobActive  EngagementJobStatus = "active"
	EngagementJobStopped EngagementJobStatus = "stopped"
	EngagementJobExpired EngagementJobStatus = "expired"
)

// EngagementMetrics is the latest platform-reported snapshot for a
// tracked piece of content. Snapshots are authoritative, not deltas; a
// later report with lower counts replaces the stored one as-is.
type EngagementMetrics struct {
	Views      int64      `json:"views"`
	Likes      int64      `json:"likes"`
	Replies    int64      `json:"replies"`
	Reposts    int64      `json:"reposts"`
	ReportedAt *time.Time `json:"reported_at,omitempty"`
}

// EngagementJob tracks a single posted piece of content for a fixed
// observation window. It is independent of the step/task graph; the
// source task reference is provenance only, not an ownership edge.
type EngagementJob struct {
	ID           string              `json:"id"`
	ProjectID    string              `json:"project_id" validate:"required"`
	TargetURL    string              `json:"target_url" validate:"required,url"`
	SourceTaskID string              `json:"source_task_id,omitempty"`
	Status       EngagementJobStatus `json:"status"`
	Metrics      EngagementMetrics   `json:"metrics"`
	DurationDays int                 `json:"duration_days" validate:"min=1"`

	// PollSchedule is an optional cron expression controlling check-in
	// cadence. When empty, a fixed default interval applies.
	PollSchedule string    `json:"poll_schedule,omitempty"`
	NextPollAt   time.Time `json:"next_poll_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ExpiredBy reports whether the observation window has elapsed at the
// given instant. Expiry is evaluated lazily at poll time.
func (j *EngagementJob) ExpiredBy(now time.Time) bool {
	return !now.Before(j.ExpiresAt)
}

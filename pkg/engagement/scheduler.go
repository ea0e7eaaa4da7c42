// Package engagement schedules metrics tracking for posted content. The
// external extension worker pulls due jobs and reports snapshots back; a
// job lives for a fixed observation window from creation.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/growloop/growloop/pkg/eventbus"
	"github.com/growloop/growloop/pkg/events"
	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/persistence"
	"github.com/robfig/cron/v3"
)

// defaultPollInterval spaces check-ins when a job declares no cron
// schedule.
const defaultPollInterval = 6 * time.Hour

// ErrJobNotActive is returned when a poll-affecting operation targets a
// stopped or expired job.
var ErrJobNotActive = errors.New("engagement job is not active")

// ErrInvalidSchedule wraps cron expression parse failures.
var ErrInvalidSchedule = errors.New("invalid poll schedule")

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// CreateJobRequest carries the "track this" parameters.
type CreateJobRequest struct {
	ProjectID    string `json:"project_id"     validate:"required"`
	TargetURL    string `json:"target_url"     validate:"required,url"`
	SourceTaskID string `json:"source_task_id"`
	DurationDays int    `json:"duration_days"  validate:"min=1"`
	PollSchedule string `json:"poll_schedule"`
}

// Scheduler owns engagement job state. Expiry is lazy: jobs flip to
// expired when a poll observes an elapsed window, never via a timer.
type Scheduler struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
}

func NewScheduler(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		persistence: p,
		publisher:   publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateJob starts tracking a posted piece of content for
// DurationDays. The first poll is due immediately.
func (s *Scheduler) CreateJob(ctx context.Context, req CreateJobRequest) (*models.EngagementJob, error) {
	if req.PollSchedule != "" {
		if _, err := cronParser.Parse(req.PollSchedule); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, req.PollSchedule, err)
		}
	}

	now := s.now()

	job := &models.EngagementJob{
		ID:           uuid.New().String(),
		ProjectID:    req.ProjectID,
		TargetURL:    req.TargetURL,
		SourceTaskID: req.SourceTaskID,
		Status:       models.EngagementJobActive,
		DurationDays: req.DurationDays,
		PollSchedule: req.PollSchedule,
		NextPollAt:   now,
		ExpiresAt:    now.AddDate(0, 0, req.DurationDays),
	}

	if err := s.persistence.EngagementJobRepository().Save(ctx, job); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, job.ID, events.EngagementJobCreated{
		BaseEvent: s.baseEvent(events.EngagementJobCreatedEvent, job.ProjectID),
		JobID:     job.ID,
		TaskID:    job.SourceTaskID,
		TargetURL: job.TargetURL,
		ExpiresAt: job.ExpiresAt,
	})

	return job, nil
}

// PollJobs returns up to limit active jobs due for a check-in, oldest
// due first. Jobs whose window elapsed are expired here instead of being
// served.
func (s *Scheduler) PollJobs(ctx context.Context, limit int) ([]*models.EngagementJob, error) {
	now := s.now()

	due, err := s.persistence.EngagementJobRepository().DueJobs(ctx, limit, now)
	if err != nil {
		return nil, err
	}

	served := make([]*models.EngagementJob, 0, len(due))

	for _, job := range due {
		if job.ExpiredBy(now) {
			if err := s.expire(ctx, job, now); err != nil {
				return nil, err
			}

			continue
		}

		served = append(served, job)
	}

	return served, nil
}

// ReportMetrics stores the worker's latest snapshot as-is and advances
// the next poll time. No monotonicity check: platform counts are
// authoritative, a lower later count replaces a higher earlier one.
func (s *Scheduler) ReportMetrics(ctx context.Context, jobID string, metrics models.EngagementMetrics) (*models.EngagementJob, error) {
	job, err := s.activeJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	if metrics.ReportedAt == nil {
		metrics.ReportedAt = &now
	}

	job.Metrics = metrics
	job.NextPollAt = s.nextPoll(job, now)

	if job.ExpiredBy(now) {
		job.Status = models.EngagementJobExpired
	}

	if err := s.persistence.EngagementJobRepository().Save(ctx, job); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, job.ID, events.EngagementReported{
		BaseEvent: s.baseEvent(events.EngagementReportedEvent, job.ProjectID),
		JobID:     job.ID,
		Metrics:   job.Metrics,
	})

	return job, nil
}

// TriggerNow pulls the job's next poll forward so the next PollJobs call
// serves it first.
func (s *Scheduler) TriggerNow(ctx context.Context, jobID string) (*models.EngagementJob, error) {
	job, err := s.activeJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	job.NextPollAt = s.now()

	if err := s.persistence.EngagementJobRepository().Save(ctx, job); err != nil {
		return nil, err
	}

	return job, nil
}

// StopJob ends tracking. One-way: a stopped job cannot be reactivated.
func (s *Scheduler) StopJob(ctx context.Context, jobID string) (*models.EngagementJob, error) {
	job, err := s.activeJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	job.Status = models.EngagementJobStopped

	if err := s.persistence.EngagementJobRepository().Save(ctx, job); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, job.ID, events.EngagementJobStopped{
		BaseEvent: s.baseEvent(events.EngagementJobStoppedEvent, job.ProjectID),
		JobID:     job.ID,
	})

	return job, nil
}

func (s *Scheduler) activeJob(ctx context.Context, jobID string) (*models.EngagementJob, error) {
	job, err := s.persistence.EngagementJobRepository().GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job == nil {
		return nil, persistence.NewStoreError("activeJob", "engagement_job", jobID, persistence.ErrEngagementJobNotFound)
	}

	if job.Status != models.EngagementJobActive {
		return nil, fmt.Errorf("%w: %s is %s", ErrJobNotActive, jobID, job.Status)
	}

	return job, nil
}

func (s *Scheduler) expire(ctx context.Context, job *models.EngagementJob, now time.Time) error {
	job.Status = models.EngagementJobExpired

	if err := s.persistence.EngagementJobRepository().Save(ctx, job); err != nil {
		return err
	}

	s.publishEvent(ctx, job.ID, events.EngagementJobExpired{
		BaseEvent: s.baseEvent(events.EngagementJobExpiredEvent, job.ProjectID),
		JobID:     job.ID,
		ExpiredAt: now,
	})

	return nil
}

// nextPoll computes the following check-in from the job's cron schedule,
// falling back to the default interval.
func (s *Scheduler) nextPoll(job *models.EngagementJob, now time.Time) time.Time {
	if job.PollSchedule != "" {
		schedule, err := cronParser.Parse(job.PollSchedule)
		if err == nil {
			return schedule.Next(now)
		}

		s.logger.Warn("Invalid poll schedule on stored job, using default interval",
			"job_id", job.ID, "schedule", job.PollSchedule, "error", err)
	}

	return now.Add(defaultPollInterval)
}

func (s *Scheduler) publishEvent(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish audit event",
			"event_type", event.GetType(), "error", err)
	}
}

func (s *Scheduler) baseEvent(eventType events.EventType, projectID string) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ProjectID: projectID,
	}
}

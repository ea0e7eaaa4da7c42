package file

import (
	"context"
	"sort"
	"time"

	"github.com/growloop/growloop/pkg/models"
)

const engagementJobsKind = "engagement_jobs"

// EngagementJobRepository handles engagement job documents.
type EngagementJobRepository struct {
	root string
}

func (r *EngagementJobRepository) GetByID(_ context.Context, id string) (*models.EngagementJob, error) {
	job, _, err := readDoc[models.EngagementJob](r.root, engagementJobsKind, id)

	return job, err
}

func (r *EngagementJobRepository) ListByProject(_ context.Context, projectID string) ([]*models.EngagementJob, error) {
	all, err := listDocs[models.EngagementJob](r.root, engagementJobsKind)
	if err != nil {
		return nil, err
	}

	jobs := make([]*models.EngagementJob, 0, len(all))

	for _, job := range all {
		if job.ProjectID == projectID {
			jobs = append(jobs, job)
		}
	}

	return jobs, nil
}

func (r *EngagementJobRepository) Save(_ context.Context, job *models.EngagementJob) error {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}

	job.UpdatedAt = now

	return writeDoc(r.root, engagementJobsKind, job.ID, job)
}

func (r *EngagementJobRepository) DueJobs(_ context.Context, limit int, now time.Time) ([]*models.EngagementJob, error) {
	all, err := listDocs[models.EngagementJob](r.root, engagementJobsKind)
	if err != nil {
		return nil, err
	}

	due := make([]*models.EngagementJob, 0, len(all))

	for _, job := range all {
		if job.Status == models.EngagementJobActive && !job.NextPollAt.After(now) {
			due = append(due, job)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].NextPollAt.Before(due[j].NextPollAt)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	return due, nil
}

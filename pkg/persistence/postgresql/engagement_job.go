package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/growloop/growloop/pkg/models"
)

const engagementJobColumns = `id, project_id, target_url, source_task_id, status, metrics, duration_days, poll_schedule, next_poll_at, expires_at, created_at, updated_at`

// EngagementJobRepository handles engagement job rows.
type EngagementJobRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *EngagementJobRepository) GetByID(ctx context.Context, id string) (*models.EngagementJob, error) {
	query := fmt.Sprintf("SELECT %s FROM engagement_jobs WHERE id = $1", engagementJobColumns)

	job, err := scanEngagementJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return job, nil
}

func (r *EngagementJobRepository) ListByProject(ctx context.Context, projectID string) ([]*models.EngagementJob, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM engagement_jobs
		WHERE project_id = $1
		ORDER BY created_at
	`, engagementJobColumns)

	return r.query(ctx, query, projectID)
}

func (r *EngagementJobRepository) Save(ctx context.Context, job *models.EngagementJob) error {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}

	job.UpdatedAt = now

	metricsJSON, err := json.Marshal(job.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal engagement metrics: %w", err)
	}

	query := `
		INSERT INTO engagement_jobs (id, project_id, target_url, source_task_id, status, metrics, duration_days, poll_schedule, next_poll_at, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			metrics = EXCLUDED.metrics,
			poll_schedule = EXCLUDED.poll_schedule,
			next_poll_at = EXCLUDED.next_poll_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		job.ID, job.ProjectID, job.TargetURL, job.SourceTaskID, job.Status,
		metricsJSON, job.DurationDays, job.PollSchedule, job.NextPollAt,
		job.ExpiresAt, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save engagement job: %w", err)
	}

	return nil
}

func (r *EngagementJobRepository) DueJobs(ctx context.Context, limit int, now time.Time) ([]*models.EngagementJob, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM engagement_jobs
		WHERE status = $1 AND next_poll_at <= $2
		ORDER BY next_poll_at
	`, engagementJobColumns)

	if limit > 0 {
		return r.query(ctx, query+" LIMIT $3", models.EngagementJobActive, now, limit)
	}

	return r.query(ctx, query, models.EngagementJobActive, now)
}

func (r *EngagementJobRepository) query(ctx context.Context, query string, args ...any) ([]*models.EngagementJob, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query engagement jobs: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	jobs := make([]*models.EngagementJob, 0)

	for rows.Next() {
		job, err := scanEngagementJob(rows)
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating engagement jobs: %w", err)
	}

	return jobs, nil
}

func scanEngagementJob(row rowScanner) (*models.EngagementJob, error) {
	var (
		job         models.EngagementJob
		metricsJSON []byte
	)

	err := row.Scan(
		&job.ID,
		&job.ProjectID,
		&job.TargetURL,
		&job.SourceTaskID,
		&job.Status,
		&metricsJSON,
		&job.DurationDays,
		&job.PollSchedule,
		&job.NextPollAt,
		&job.ExpiresAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan engagement job: %w", err)
	}

	if err := json.Unmarshal(metricsJSON, &job.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal engagement metrics: %w", err)
	}

	return &job, nil
}

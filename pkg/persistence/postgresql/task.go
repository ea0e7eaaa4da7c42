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

const taskColumns = `id, step_id, workflow_id, project_id, status, output_data, error_message, created_at, updated_at, completed_at`

// TaskRepository handles task rows. Tasks are an append-only history;
// rows are never deleted by the engine.
type TaskRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = $1", taskColumns)

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return task, nil
}

func (r *TaskRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Task, error) {
	return r.list(ctx, "workflow_id = $1", workflowID)
}

func (r *TaskRepository) ListByStep(ctx context.Context, stepID string) ([]*models.Task, error) {
	return r.list(ctx, "step_id = $1", stepID)
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	return r.list(ctx, "project_id = $1", projectID)
}

func (r *TaskRepository) Save(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}

	task.UpdatedAt = now

	outputJSON, err := marshalMap(task.OutputData)
	if err != nil {
		return fmt.Errorf("failed to marshal task output: %w", err)
	}

	var completedAt sql.NullTime
	if task.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *task.CompletedAt, Valid: true}
	}

	query := `
		INSERT INTO tasks (id, step_id, workflow_id, project_id, status, output_data, error_message, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			output_data = EXCLUDED.output_data,
			error_message = EXCLUDED.error_message,
			updated_at = EXCLUDED.updated_at,
			completed_at = EXCLUDED.completed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		task.ID, task.StepID, task.WorkflowID, task.ProjectID, task.Status,
		outputJSON, task.ErrorMessage, task.CreatedAt, task.UpdatedAt, completedAt)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	return nil
}

func (r *TaskRepository) OldestExtensionQueued(ctx context.Context) (*models.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE status = $1
		ORDER BY created_at
		LIMIT 1
	`, taskColumns)

	task, err := scanTask(r.db.QueryRowContext(ctx, query, models.TaskStatusExtensionQueued))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return task, nil
}

func (r *TaskRepository) list(ctx context.Context, where string, arg any) ([]*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE %s ORDER BY created_at", taskColumns, where)

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	tasks := make([]*models.Task, 0)

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		task        models.Task
		outputJSON  []byte
		completedAt sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.StepID,
		&task.WorkflowID,
		&task.ProjectID,
		&task.Status,
		&outputJSON,
		&task.ErrorMessage,
		&task.CreatedAt,
		&task.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	if len(outputJSON) > 0 {
		if err := json.Unmarshal(outputJSON, &task.OutputData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task output: %w", err)
		}
	}

	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}

	return &task, nil
}

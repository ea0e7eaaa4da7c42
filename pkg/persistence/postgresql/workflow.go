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
	"github.com/growloop/growloop/pkg/persistence"
)

// WorkflowRepository handles workflow rows and their step rows. A
// workflow save replaces the step set wholesale; SaveStep touches a
// single step row.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *WorkflowRepository) List(ctx context.Context) ([]*models.Workflow, error) {
	return r.list(ctx, "", nil)
}

func (r *WorkflowRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Workflow, error) {
	return r.list(ctx, "WHERE project_id = $1", []any{projectID})
}

func (r *WorkflowRepository) list(ctx context.Context, where string, args []any) ([]*models.Workflow, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, pillar_id, name, config, created_at, updated_at
		FROM workflows
		%s
		ORDER BY created_at
	`, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	for _, workflow := range workflows {
		if err := r.loadSteps(ctx, workflow); err != nil {
			return nil, err
		}
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `
		SELECT id, project_id, pillar_id, name, config, created_at, updated_at
		FROM workflows
		WHERE id = $1
	`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	if err := r.loadSteps(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	configJSON, err := marshalMap(workflow.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow config: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	workflowQuery := `
		INSERT INTO workflows (id, project_id, pillar_id, name, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			pillar_id = EXCLUDED.pillar_id,
			name = EXCLUDED.name,
			config = EXCLUDED.config,
			updated_at = EXCLUDED.updated_at
	`

	_, err = tx.ExecContext(ctx, workflowQuery,
		workflow.ID, workflow.ProjectID, workflow.PillarID, workflow.Name,
		configJSON, workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM steps WHERE workflow_id = $1", workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to clear workflow steps: %w", err)
	}

	for _, step := range workflow.Steps {
		err = upsertStep(ctx, tx, step)
		if err != nil {
			return err
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit workflow save: %w", err)
	}

	return nil
}

// SaveStep upserts one step row, typically to repoint its current-task
// reference.
func (r *WorkflowRepository) SaveStep(ctx context.Context, step *models.Step) error {
	var exists bool

	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM workflows WHERE id = $1)", step.WorkflowID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check workflow existence: %w", err)
	}

	if !exists {
		return persistence.NewStoreError("SaveStep", "workflow", step.WorkflowID, persistence.ErrWorkflowNotFound)
	}

	return upsertStep(ctx, r.db, step)
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

func (r *WorkflowRepository) DeleteByProject(ctx context.Context, projectID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM workflows WHERE project_id = $1", projectID)
	if err != nil {
		return fmt.Errorf("failed to delete workflows: %w", err)
	}

	return nil
}

func (r *WorkflowRepository) loadSteps(ctx context.Context, workflow *models.Workflow) error {
	query := `
		SELECT id, workflow_id, type, position, dependency_ids, config, current_task_id
		FROM steps
		WHERE workflow_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to query steps: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	workflow.Steps = make([]*models.Step, 0)

	for rows.Next() {
		var (
			step             models.Step
			dependencyIDJSON []byte
			configJSON       []byte
			currentTaskID    sql.NullString
		)

		err := rows.Scan(
			&step.ID,
			&step.WorkflowID,
			&step.Type,
			&step.Position,
			&dependencyIDJSON,
			&configJSON,
			&currentTaskID,
		)
		if err != nil {
			return fmt.Errorf("failed to scan step: %w", err)
		}

		if err := json.Unmarshal(dependencyIDJSON, &step.DependencyIDs); err != nil {
			return fmt.Errorf("failed to unmarshal step dependencies: %w", err)
		}

		if err := json.Unmarshal(configJSON, &step.Config); err != nil {
			return fmt.Errorf("failed to unmarshal step config: %w", err)
		}

		if currentTaskID.Valid {
			step.CurrentTaskID = &currentTaskID.String
		}

		workflow.Steps = append(workflow.Steps, &step)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating steps: %w", err)
	}

	return nil
}

// execer covers both *sql.DB and *sql.Tx for step upserts.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertStep(ctx context.Context, db execer, step *models.Step) error {
	dependencyIDJSON, err := json.Marshal(step.DependencyIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal step dependencies: %w", err)
	}

	if step.DependencyIDs == nil {
		dependencyIDJSON = []byte("[]")
	}

	configJSON, err := marshalMap(step.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal step config: %w", err)
	}

	var currentTaskID sql.NullString
	if step.CurrentTaskID != nil {
		currentTaskID = sql.NullString{String: *step.CurrentTaskID, Valid: true}
	}

	query := `
		INSERT INTO steps (id, workflow_id, type, position, dependency_ids, config, current_task_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type,
			position = EXCLUDED.position,
			dependency_ids = EXCLUDED.dependency_ids,
			config = EXCLUDED.config,
			current_task_id = EXCLUDED.current_task_id
	`

	_, err = db.ExecContext(ctx, query,
		step.ID, step.WorkflowID, step.Type, step.Position,
		dependencyIDJSON, configJSON, currentTaskID)
	if err != nil {
		return fmt.Errorf("failed to save step: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow   models.Workflow
		configJSON []byte
	)

	err := row.Scan(
		&workflow.ID,
		&workflow.ProjectID,
		&workflow.PillarID,
		&workflow.Name,
		&configJSON,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	if err := json.Unmarshal(configJSON, &workflow.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow config: %w", err)
	}

	return &workflow, nil
}

func marshalMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(m)
}

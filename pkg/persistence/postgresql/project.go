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

// ProjectRepository handles project rows.
type ProjectRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := `
		SELECT id, name, description, settings, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	var (
		project      models.Project
		settingsJSON []byte
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&settingsJSON,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	if err := json.Unmarshal(settingsJSON, &project.Settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project settings: %w", err)
	}

	return &project, nil
}

func (r *ProjectRepository) Save(ctx context.Context, project *models.Project) error {
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}

	project.UpdatedAt = now

	settingsJSON, err := json.Marshal(project.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal project settings: %w", err)
	}

	if project.Settings == nil {
		settingsJSON = []byte("{}")
	}

	query := `
		INSERT INTO projects (id, name, description, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			settings = EXCLUDED.settings,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		project.ID, project.Name, project.Description, settingsJSON,
		project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// PillarRepository handles pillar rows.
type PillarRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *PillarRepository) GetByID(ctx context.Context, id string) (*models.Pillar, error) {
	query := `
		SELECT id, project_id, name, platform, description, created_at
		FROM pillars
		WHERE id = $1
	`

	var pillar models.Pillar

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&pillar.ID,
		&pillar.ProjectID,
		&pillar.Name,
		&pillar.Platform,
		&pillar.Description,
		&pillar.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan pillar: %w", err)
	}

	return &pillar, nil
}

func (r *PillarRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Pillar, error) {
	query := `
		SELECT id, project_id, name, platform, description, created_at
		FROM pillars
		WHERE project_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pillars: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	pillars := make([]*models.Pillar, 0)

	for rows.Next() {
		var pillar models.Pillar

		err := rows.Scan(
			&pillar.ID,
			&pillar.ProjectID,
			&pillar.Name,
			&pillar.Platform,
			&pillar.Description,
			&pillar.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pillar: %w", err)
		}

		pillars = append(pillars, &pillar)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pillars: %w", err)
	}

	return pillars, nil
}

func (r *PillarRepository) Save(ctx context.Context, pillar *models.Pillar) error {
	if pillar.CreatedAt.IsZero() {
		pillar.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO pillars (id, project_id, name, platform, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			platform = EXCLUDED.platform,
			description = EXCLUDED.description
	`

	_, err := r.db.ExecContext(ctx, query,
		pillar.ID, pillar.ProjectID, pillar.Name, pillar.Platform,
		pillar.Description, pillar.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save pillar: %w", err)
	}

	return nil
}

func (r *PillarRepository) DeleteByProject(ctx context.Context, projectID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM pillars WHERE project_id = $1", projectID)
	if err != nil {
		return fmt.Errorf("failed to delete pillars: %w", err)
	}

	return nil
}

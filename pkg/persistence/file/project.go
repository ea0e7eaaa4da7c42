package file

import (
	"context"
	"time"

	"github.com/growloop/growloop/pkg/models"
)

const (
	projectsKind = "projects"
	pillarsKind  = "pillars"
)

// ProjectRepository handles project documents.
type ProjectRepository struct {
	root string
}

func (r *ProjectRepository) GetByID(_ context.Context, id string) (*models.Project, error) {
	project, _, err := readDoc[models.Project](r.root, projectsKind, id)

	return project, err
}

func (r *ProjectRepository) Save(_ context.Context, project *models.Project) error {
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}

	project.UpdatedAt = now

	return writeDoc(r.root, projectsKind, project.ID, project)
}

func (r *ProjectRepository) Delete(_ context.Context, id string) error {
	return deleteDoc(r.root, projectsKind, id)
}

// PillarRepository handles pillar documents.
type PillarRepository struct {
	root string
}

func (r *PillarRepository) GetByID(_ context.Context, id string) (*models.Pillar, error) {
	pillar, _, err := readDoc[models.Pillar](r.root, pillarsKind, id)

	return pillar, err
}

func (r *PillarRepository) ListByProject(_ context.Context, projectID string) ([]*models.Pillar, error) {
	all, err := listDocs[models.Pillar](r.root, pillarsKind)
	if err != nil {
		return nil, err
	}

	pillars := make([]*models.Pillar, 0, len(all))

	for _, pillar := range all {
		if pillar.ProjectID == projectID {
			pillars = append(pillars, pillar)
		}
	}

	return pillars, nil
}

func (r *PillarRepository) Save(_ context.Context, pillar *models.Pillar) error {
	if pillar.CreatedAt.IsZero() {
		pillar.CreatedAt = time.Now().UTC()
	}

	return writeDoc(r.root, pillarsKind, pillar.ID, pillar)
}

func (r *PillarRepository) DeleteByProject(ctx context.Context, projectID string) error {
	pillars, err := r.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}

	for _, pillar := range pillars {
		if err := deleteDoc(r.root, pillarsKind, pillar.ID); err != nil {
			return err
		}
	}

	return nil
}

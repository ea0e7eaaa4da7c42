package file

import (
	"context"
	"sort"
	"time"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/persistence"
)

const workflowsKind = "workflows"

// WorkflowRepository handles workflow documents. Steps are embedded in
// the owning workflow document.
type WorkflowRepository struct {
	root string
}

func (r *WorkflowRepository) List(_ context.Context) ([]*models.Workflow, error) {
	workflows, err := listDocs[models.Workflow](r.root, workflowsKind)
	if err != nil {
		return nil, err
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})

	return workflows, nil
}

func (r *WorkflowRepository) ListByProject(ctx context.Context, projectID string) ([]*models.Workflow, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(all))

	for _, workflow := range all {
		if workflow.ProjectID == projectID {
			workflows = append(workflows, workflow)
		}
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	workflow, _, err := readDoc[models.Workflow](r.root, workflowsKind, id)

	return workflow, err
}

func (r *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	return writeDoc(r.root, workflowsKind, workflow.ID, workflow)
}

// SaveStep rewrites the step inside its owning workflow document.
func (r *WorkflowRepository) SaveStep(ctx context.Context, step *models.Step) error {
	workflow, err := r.GetByID(ctx, step.WorkflowID)
	if err != nil {
		return err
	}

	if workflow == nil {
		return persistence.NewStoreError("SaveStep", "workflow", step.WorkflowID, persistence.ErrWorkflowNotFound)
	}

	for i, existing := range workflow.Steps {
		if existing.ID == step.ID {
			workflow.Steps[i] = step

			return r.Save(ctx, workflow)
		}
	}

	workflow.Steps = append(workflow.Steps, step)

	return r.Save(ctx, workflow)
}

func (r *WorkflowRepository) Delete(_ context.Context, id string) error {
	return deleteDoc(r.root, workflowsKind, id)
}

func (r *WorkflowRepository) DeleteByProject(ctx context.Context, projectID string) error {
	workflows, err := r.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}

	for _, workflow := range workflows {
		if err := deleteDoc(r.root, workflowsKind, workflow.ID); err != nil {
			return err
		}
	}

	return nil
}

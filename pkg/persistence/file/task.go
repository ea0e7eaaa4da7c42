package file

import (
	"context"
	"sort"
	"time"

	"github.com/growloop/growloop/pkg/models"
)

const tasksKind = "tasks"

// TaskRepository handles task documents.
type TaskRepository struct {
	root string
}

func (r *TaskRepository) GetByID(_ context.Context, id string) (*models.Task, error) {
	task, _, err := readDoc[models.Task](r.root, tasksKind, id)

	return task, err
}

func (r *TaskRepository) ListByWorkflow(_ context.Context, workflowID string) ([]*models.Task, error) {
	return r.list(func(task *models.Task) bool {
		return task.WorkflowID == workflowID
	})
}

func (r *TaskRepository) ListByStep(_ context.Context, stepID string) ([]*models.Task, error) {
	return r.list(func(task *models.Task) bool {
		return task.StepID == stepID
	})
}

func (r *TaskRepository) ListByProject(_ context.Context, projectID string) ([]*models.Task, error) {
	return r.list(func(task *models.Task) bool {
		return task.ProjectID == projectID
	})
}

func (r *TaskRepository) Save(_ context.Context, task *models.Task) error {
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}

	task.UpdatedAt = now

	return writeDoc(r.root, tasksKind, task.ID, task)
}

func (r *TaskRepository) OldestExtensionQueued(_ context.Context) (*models.Task, error) {
	queued, err := r.list(func(task *models.Task) bool {
		return task.Status == models.TaskStatusExtensionQueued
	})
	if err != nil {
		return nil, err
	}

	if len(queued) == 0 {
		return nil, nil
	}

	return queued[0], nil
}

func (r *TaskRepository) list(match func(*models.Task) bool) ([]*models.Task, error) {
	all, err := listDocs[models.Task](r.root, tasksKind)
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.Task, 0, len(all))

	for _, task := range all {
		if match(task) {
			tasks = append(tasks, task)
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	return tasks, nil
}

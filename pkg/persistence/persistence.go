// Package persistence provides the data storage abstraction for
// projects, workflows, tasks, and engagement jobs.
package persistence

import (
	"context"
	"time"

	"github.com/growloop/growloop/pkg/models"
)

type Persistence interface {
	ProjectRepository() ProjectRepository
	PillarRepository() PillarRepository
	WorkflowRepository() WorkflowRepository
	TaskRepository() TaskRepository
	EngagementJobRepository() EngagementJobRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Save(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id string) error
}

type PillarRepository interface {
	GetByID(ctx context.Context, id string) (*models.Pillar, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Pillar, error)
	Save(ctx context.Context, pillar *models.Pillar) error

	// DeleteByProject removes all pillars of a project. Blueprint
	// regeneration wipes and replaces them.
	DeleteByProject(ctx context.Context, projectID string) error
}

type WorkflowRepository interface {
	List(ctx context.Context) ([]*models.Workflow, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)

	// Save persists the workflow together with its embedded steps.
	Save(ctx context.Context, workflow *models.Workflow) error

	// SaveStep persists a single step, repointing its current-task
	// reference without rewriting sibling steps.
	SaveStep(ctx context.Context, step *models.Step) error

	Delete(ctx context.Context, id string) error
	DeleteByProject(ctx context.Context, projectID string) error
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*models.Task, error)
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Task, error)
	ListByStep(ctx context.Context, stepID string) ([]*models.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.Task, error)
	Save(ctx context.Context, task *models.Task) error

	// OldestExtensionQueued returns the longest-waiting task queued for
	// the external extension worker, or nil when the queue is empty.
	OldestExtensionQueued(ctx context.Context) (*models.Task, error)
}

type EngagementJobRepository interface {
	GetByID(ctx context.Context, id string) (*models.EngagementJob, error)
	ListByProject(ctx context.Context, projectID string) ([]*models.EngagementJob, error)
	Save(ctx context.Context, job *models.EngagementJob) error

	// DueJobs returns up to limit active jobs whose next poll time has
	// passed, oldest due first.
	DueJobs(ctx context.Context, limit int, now time.Time) ([]*models.EngagementJob, error)
}

package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/persistence"
	"github.com/growloop/growloop/pkg/persistence/file"
	"github.com/growloop/growloop/pkg/protocol"
	"github.com/growloop/growloop/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	blueprint *models.Blueprint
	err       error
}

func (g *stubGenerator) GenerateContent(_ context.Context, _ protocol.PromptContext) (*protocol.GeneratedContent, error) {
	return &protocol.GeneratedContent{Content: "generated", Provider: "openai"}, nil
}

func (g *stubGenerator) GenerateBlueprint(_ context.Context, _ protocol.ProjectContext) (*models.Blueprint, error) {
	return g.blueprint, g.err
}

func newService(t *testing.T, generator *stubGenerator) (*services.BlueprintService, persistence.Persistence) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := file.NewPersistence(t.TempDir())

	return services.NewBlueprintService(store, generator, logger), store
}

func seedProject(t *testing.T, ctx context.Context, store persistence.Persistence) {
	t.Helper()

	require.NoError(t, store.ProjectRepository().Save(ctx, &models.Project{
		ID:          "proj-1",
		Name:        "Acme Launch",
		Description: "Developer tool launch",
	}))
}

func proposedBlueprint() *models.Blueprint {
	return &models.Blueprint{
		ActivePillars: []*models.Pillar{
			{ID: "p-community", Name: "Community", Platform: "x"},
			{ID: "p-thought", Name: "Thought Leadership", Platform: "linkedin"},
		},
		Workflows: []*models.Workflow{
			{
				Name:     "Engage on X",
				PillarID: "p-community",
				Steps: []*models.Step{
					{ID: "s-scan", Type: models.StepScanFeed},
					{ID: "s-select", Type: models.StepSelectTargets},
					{ID: "s-reply", Type: models.StepGenerateReplies, DependencyIDs: []string{"s-select"}},
				},
			},
		},
	}
}

func TestGenerateBlueprintWipesAndReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, store := newService(t, &stubGenerator{blueprint: proposedBlueprint()})
	seedProject(t, ctx, store)

	require.NoError(t, store.PillarRepository().Save(ctx, &models.Pillar{
		ID: "old-pillar", ProjectID: "proj-1", Name: "Old Channel",
	}))
	require.NoError(t, store.WorkflowRepository().Save(ctx, &models.Workflow{
		ID: "old-wf", ProjectID: "proj-1", PillarID: "old-pillar", Name: "Old flow",
	}))

	// Task history of the wiped workflow survives, queryable by project.
	require.NoError(t, store.TaskRepository().Save(ctx, &models.Task{
		ID: "old-task", StepID: "old-step", WorkflowID: "old-wf", ProjectID: "proj-1",
		Status: models.TaskStatusCompleted,
	}))

	blueprint, err := service.GenerateBlueprint(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, blueprint.ActivePillars, 2)

	pillars, err := store.PillarRepository().ListByProject(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, pillars, 2)

	for _, pillar := range pillars {
		assert.NotEqual(t, "old-pillar", pillar.ID)
		assert.NotEqual(t, "p-community", pillar.ID)
		assert.Equal(t, "proj-1", pillar.ProjectID)
	}

	workflows, err := store.WorkflowRepository().ListByProject(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, workflows, 1)

	old, err := store.WorkflowRepository().GetByID(ctx, "old-wf")
	require.NoError(t, err)
	assert.Nil(t, old)

	tasks, err := store.TaskRepository().ListByProject(ctx, "proj-1")
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestGenerateBlueprintRekeysReferences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, store := newService(t, &stubGenerator{blueprint: proposedBlueprint()})
	seedProject(t, ctx, store)

	_, err := service.GenerateBlueprint(ctx, "proj-1")
	require.NoError(t, err)

	workflows, err := store.WorkflowRepository().ListByProject(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, workflows, 1)

	workflow := workflows[0]

	pillar, err := store.PillarRepository().GetByID(ctx, workflow.PillarID)
	require.NoError(t, err)
	require.NotNil(t, pillar)
	assert.Equal(t, "Community", pillar.Name)

	require.Len(t, workflow.Steps, 3)

	for i, step := range workflow.Steps {
		assert.NotEqual(t, "", step.ID)
		assert.NotContains(t, []string{"s-scan", "s-select", "s-reply"}, step.ID)
		assert.Equal(t, workflow.ID, step.WorkflowID)
		assert.Equal(t, i+1, step.Position)
		assert.Nil(t, step.CurrentTaskID)
	}

	// Provider-chosen dependency IDs are re-keyed along with step IDs.
	assert.Equal(t, []string{workflow.Steps[1].ID}, workflow.Steps[2].DependencyIDs)
}

func TestGenerateBlueprintRejectsEmptyPillars(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, store := newService(t, &stubGenerator{blueprint: &models.Blueprint{}})
	seedProject(t, ctx, store)

	_, err := service.GenerateBlueprint(ctx, "proj-1")
	require.Error(t, err)
	assert.True(t, services.IsValidation(err))
}

func TestGenerateBlueprintUnknownProject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	service, _ := newService(t, &stubGenerator{blueprint: proposedBlueprint()})

	_, err := service.GenerateBlueprint(ctx, "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsProjectNotFound(err))
}

func TestGenerateBlueprintProviderFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	generator := &stubGenerator{err: assert.AnError}
	service, store := newService(t, generator)
	seedProject(t, ctx, store)

	_, err := service.GenerateBlueprint(ctx, "proj-1")
	require.ErrorIs(t, err, assert.AnError)
}

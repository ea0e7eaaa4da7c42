package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/persistence"
	"github.com/growloop/growloop/pkg/protocol"
)

// BlueprintService regenerates a project's pillar and workflow layout
// from an AI proposal. Applying a blueprint is wipe-and-replace: the
// previous pillars and workflows go away, cascading their steps; task
// history of deleted workflows is orphaned on purpose and stays
// queryable by project.
type BlueprintService struct {
	persistence persistence.Persistence
	generator   protocol.ContentGenerator
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewBlueprintService(p persistence.Persistence, generator protocol.ContentGenerator, logger *slog.Logger) *BlueprintService {
	return &BlueprintService{
		persistence: p,
		generator:   generator,
		validator:   validator.New(),
		logger:      logger,
	}
}

// GenerateBlueprint asks the provider for a fresh proposal and applies
// it to the project.
func (s *BlueprintService) GenerateBlueprint(ctx context.Context, projectID string) (*models.Blueprint, error) {
	project, err := s.persistence.ProjectRepository().GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if project == nil {
		return nil, persistence.NewStoreError("GenerateBlueprint", "project", projectID, persistence.ErrProjectNotFound)
	}

	blueprint, err := s.generator.GenerateBlueprint(ctx, protocol.ProjectContext{
		ProjectID:   project.ID,
		Name:        project.Name,
		Description: project.Description,
		Settings:    project.Settings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate blueprint for project %s: %w", projectID, err)
	}

	if len(blueprint.ActivePillars) == 0 {
		return nil, NewValidationError("generated blueprint has no pillars")
	}

	if err := s.apply(ctx, project, blueprint); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Blueprint applied",
		"project_id", project.ID,
		"pillars", len(blueprint.ActivePillars),
		"workflows", len(blueprint.Workflows))

	return blueprint, nil
}

// apply wipes the project's current layout and persists the proposal.
// Provider-chosen IDs are replaced with fresh ones; workflow pillar
// references are re-keyed through the replacement map.
func (s *BlueprintService) apply(ctx context.Context, project *models.Project, blueprint *models.Blueprint) error {
	if err := s.persistence.WorkflowRepository().DeleteByProject(ctx, project.ID); err != nil {
		return err
	}

	if err := s.persistence.PillarRepository().DeleteByProject(ctx, project.ID); err != nil {
		return err
	}

	pillarIDs := make(map[string]string, len(blueprint.ActivePillars))

	for _, pillar := range blueprint.ActivePillars {
		newID := uuid.New().String()
		if pillar.ID != "" {
			pillarIDs[pillar.ID] = newID
		}

		pillar.ID = newID
		pillar.ProjectID = project.ID

		if err := s.validator.Struct(pillar); err != nil {
			return NewValidationError("generated pillar is invalid", err.Error())
		}

		if err := s.persistence.PillarRepository().Save(ctx, pillar); err != nil {
			return err
		}
	}

	for _, workflow := range blueprint.Workflows {
		workflow.ID = uuid.New().String()
		workflow.ProjectID = project.ID

		if mapped, ok := pillarIDs[workflow.PillarID]; ok {
			workflow.PillarID = mapped
		} else {
			workflow.PillarID = blueprint.ActivePillars[0].ID
		}

		stepIDs := make(map[string]string, len(workflow.Steps))

		for position, step := range workflow.Steps {
			newID := uuid.New().String()
			if step.ID != "" {
				stepIDs[step.ID] = newID
			}

			step.ID = newID
			step.WorkflowID = workflow.ID
			step.CurrentTaskID = nil

			if step.Position == 0 {
				step.Position = position + 1
			}
		}

		for _, step := range workflow.Steps {
			for i, depID := range step.DependencyIDs {
				if mapped, ok := stepIDs[depID]; ok {
					step.DependencyIDs[i] = mapped
				}
			}
		}

		if err := s.validator.Struct(workflow); err != nil {
			return NewValidationError("generated workflow is invalid", err.Error())
		}

		if err := s.persistence.WorkflowRepository().Save(ctx, workflow); err != nil {
			return err
		}
	}

	return nil
}

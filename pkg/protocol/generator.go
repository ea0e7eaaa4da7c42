package protocol

import (
	"context"

	"github.com/growloop/growloop/pkg/models"
)

// PromptContext is the assembled input for a single content generation
// call: project and pillar metadata plus handler-specific fields.
type PromptContext struct {
	ProjectName        string         `json:"project_name"`
	ProjectDescription string         `json:"project_description"`
	Pillar             string         `json:"pillar"`
	Platform           string         `json:"platform"`
	Instruction        string         `json:"instruction"`
	Input              map[string]any `json:"input,omitempty"`
}

// GeneratedContent is the provider's answer to a generation call.
type GeneratedContent struct {
	Content  string `json:"content"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// ProjectContext is the input for blueprint generation.
type ProjectContext struct {
	ProjectID   string         `json:"project_id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// ContentGenerator is the AI capability consumed by step handlers and
// the blueprint service. Implementations fail with an ai.ProviderError
// on quota, auth, or network trouble; callers treat those as retryable.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt PromptContext) (*GeneratedContent, error)
	GenerateBlueprint(ctx context.Context, project ProjectContext) (*models.Blueprint, error)
}

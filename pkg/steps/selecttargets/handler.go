// Package selecttargets implements the select_targets step: a pure
// transformation of the upstream scan result into a reply target list.
package selecttargets

import (
	"context"
	"log/slog"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/protocol"
)

// Rationale is the fixed explanation attached to every selection.
const Rationale = "Selected all high-relevance items."

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Execute passes found_items through as selected_items. No AI call, no
// I/O. The is_mock flag from upstream carries forward so downstream
// reply generation knows not to spend provider quota on simulated data.
func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (*models.StepResult, error) {
	found, _ := executionCtx.ChainedInput["found_items"].([]any)
	if found == nil {
		found = []any{}
	}

	output := map[string]any{
		"selected_items": found,
		"rationale":      Rationale,
	}

	if isMock, ok := executionCtx.ChainedInput["is_mock"].(bool); ok && isMock {
		output["is_mock"] = true
	}

	logger.InfoContext(ctx, "Selected reply targets", "count", len(found))

	return &models.StepResult{
		Status: models.TaskStatusReviewNeeded,
		Output: output,
	}, nil
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() models.StepType {
	return models.StepSelectTargets
}

func (f *Factory) Schema() string {
	return ""
}

func (f *Factory) Create(_ map[string]any) (protocol.StepHandler, error) {
	return NewHandler(), nil
}

// Package post implements the publishing steps: post_api, post_reply,
// post_extension. None of them ever publishes autonomously.
package post

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/protocol"
)

type Handler struct {
	stepType models.StepType
}

func NewHandler(stepType models.StepType) *Handler {
	return &Handler{stepType: stepType}
}

// Execute escalates to human review before any posting side effect. The
// draft payload carries everything the approval UI (or the extension,
// for post_extension) needs once a human signs off.
func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (*models.StepResult, error) {
	output := map[string]any{
		"post_mode":         postMode(h.stepType),
		"draft":             executionCtx.ChainedInput,
		"requires_approval": true,
	}

	if executionCtx.Pillar != nil {
		output["platform"] = executionCtx.Pillar.Platform
	}

	logger.InfoContext(ctx, "Post staged for approval", "step_type", h.stepType)

	return &models.StepResult{
		Status: models.TaskStatusReviewNeeded,
		Output: output,
	}, nil
}

func postMode(stepType models.StepType) string {
	switch stepType {
	case models.StepPostAPI:
		return "api"
	case models.StepPostReply:
		return "reply"
	default:
		return "extension"
	}
}

type Factory struct {
	stepType models.StepType
}

func NewFactory(stepType models.StepType) (*Factory, error) {
	switch stepType {
	case models.StepPostAPI, models.StepPostReply, models.StepPostExtension:
		return &Factory{stepType: stepType}, nil
	default:
		return nil, fmt.Errorf("post factory cannot handle step type %s", stepType)
	}
}

func (f *Factory) ID() models.StepType {
	return f.stepType
}

func (f *Factory) Schema() string {
	return ""
}

func (f *Factory) Create(_ map[string]any) (protocol.StepHandler, error) {
	return NewHandler(f.stepType), nil
}

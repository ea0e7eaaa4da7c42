// Package review implements the human-in-the-loop gate steps:
// review_content and wait_approval.
package review

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

// Execute never calls AI. It marks the task review_needed immediately,
// carrying the predecessor output forward so the reviewer sees what they
// are signing off on.
func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (*models.StepResult, error) {
	output := make(map[string]any, len(executionCtx.ChainedInput)+1)
	for k, v := range executionCtx.ChainedInput {
		output[k] = v
	}

	output["awaiting_approval"] = true

	logger.InfoContext(ctx, "Task parked for human review", "step_type", h.stepType)

	return &models.StepResult{
		Status: models.TaskStatusReviewNeeded,
		Output: output,
	}, nil
}

type Factory struct {
	stepType models.StepType
}

func NewFactory(stepType models.StepType) (*Factory, error) {
	if stepType != models.StepReviewContent && stepType != models.StepWaitApproval {
		return nil, fmt.Errorf("review factory cannot handle step type %s", stepType)
	}

	return &Factory{stepType: stepType}, nil
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

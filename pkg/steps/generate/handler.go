// Package generate implements the synchronous AI generation steps:
// generate_draft and generate_outline.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/otelhelper"
	"github.com/growloop/growloop/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultCallTimeout = 90 * time.Second

// Handler calls the AI capability once with the assembled
// project+workflow+step context. Provider failure propagates as a
// retryable generation error; the step stays not-done and rerunning is
// safe.
type Handler struct {
	stepType    models.StepType
	instruction string
	generator   protocol.ContentGenerator
	tracer      trace.Tracer
	timeout     time.Duration
}

func NewHandler(stepType models.StepType, config map[string]any, generator protocol.ContentGenerator, tracer trace.Tracer) (*Handler, error) {
	instruction, _ := config["instruction"].(string)
	if instruction == "" {
		if stepType == models.StepGenerateOutline {
			instruction = "Write a structured outline for the next piece of content."
		} else {
			instruction = "Write a full content draft ready for review."
		}
	}

	timeout := defaultCallTimeout
	if seconds, ok := config["timeout_seconds"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &Handler{
		stepType:    stepType,
		instruction: instruction,
		generator:   generator,
		tracer:      tracer,
		timeout:     timeout,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (*models.StepResult, error) {
	prompt := buildPrompt(h.instruction, executionCtx)

	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	spanCtx, span := otelhelper.StartSpan(callCtx, h.tracer, "ai.generate",
		attribute.String(otelhelper.WorkflowIDKey, executionCtx.WorkflowID),
		attribute.String(otelhelper.StepTypeKey, string(h.stepType)),
	)
	defer span.End()

	started := time.Now()

	content, err := h.generator.GenerateContent(spanCtx, prompt)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("%w: %w", protocol.ErrGenerationFailed, err)
	}

	duration := time.Since(started)
	span.SetAttributes(
		attribute.String(otelhelper.ProviderIDKey, content.Provider),
		attribute.String(otelhelper.ModelKey, content.Model),
	)

	logger.InfoContext(ctx, "Generated content",
		"provider", content.Provider, "duration_ms", duration.Milliseconds())

	return &models.StepResult{
		Status: models.TaskStatusReviewNeeded,
		Output: map[string]any{
			"content":     content.Content,
			"provider":    content.Provider,
			"model":       content.Model,
			"duration_ms": duration.Milliseconds(),
		},
	}, nil
}

func buildPrompt(instruction string, executionCtx models.ExecutionContext) protocol.PromptContext {
	prompt := protocol.PromptContext{
		Instruction: instruction,
		Input:       executionCtx.ChainedInput,
	}

	if executionCtx.Project != nil {
		prompt.ProjectName = executionCtx.Project.Name
		prompt.ProjectDescription = executionCtx.Project.Description
	}

	if executionCtx.Pillar != nil {
		prompt.Pillar = executionCtx.Pillar.Name
		prompt.Platform = executionCtx.Pillar.Platform
	}

	return prompt
}

// Package replies implements the generate_replies step: one AI call per
// selected target, fanned out concurrently.
package replies

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
	"golang.org/x/sync/errgroup"
)

const (
	defaultCallTimeout = 60 * time.Second
	defaultConcurrency = 4
)

type Handler struct {
	instruction string
	generator   protocol.ContentGenerator
	tracer      trace.Tracer
	timeout     time.Duration
	concurrency int
}

func NewHandler(config map[string]any, generator protocol.ContentGenerator, tracer trace.Tracer) (*Handler, error) {
	instruction, _ := config["instruction"].(string)
	if instruction == "" {
		instruction = "Write a short, genuine reply to this post."
	}

	timeout := defaultCallTimeout
	if seconds, ok := config["timeout_seconds"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	concurrency := defaultConcurrency
	if raw, ok := config["concurrency"].(float64); ok && raw > 0 {
		concurrency = int(raw)
	}

	return &Handler{
		instruction: instruction,
		generator:   generator,
		tracer:      tracer,
		timeout:     timeout,
		concurrency: concurrency,
	}, nil
}

// Execute generates one reply per selected target. Item-level calls run
// concurrently with no ordering dependency; all must succeed or the
// operation fails. An empty selection is terminal for this run: the user
// has to fix upstream selection, retrying cannot help.
func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (*models.StepResult, error) {
	selected, _ := executionCtx.ChainedInput["selected_items"].([]any)
	if len(selected) == 0 {
		return nil, protocol.ErrNoTargets
	}

	isMock, _ := executionCtx.ChainedInput["is_mock"].(bool)

	spanCtx, span := otelhelper.StartSpan(ctx, h.tracer, "ai.generate_replies",
		attribute.String(otelhelper.WorkflowIDKey, executionCtx.WorkflowID),
		attribute.Int(otelhelper.TargetCountKey, len(selected)),
		attribute.Bool("growloop.ai.mock", isMock),
	)
	defer span.End()

	if isMock {
		logger.InfoContext(ctx, "Upstream data is mock, substituting simulated replies",
			"count", len(selected))

		return &models.StepResult{
			Status: models.TaskStatusReviewNeeded,
			Output: map[string]any{
				"replies": simulatedReplies(selected),
				"is_mock": true,
			},
		}, nil
	}

	generated, err := h.generateAll(spanCtx, executionCtx, selected)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	logger.InfoContext(ctx, "Generated replies", "count", len(generated))

	return &models.StepResult{
		Status: models.TaskStatusReviewNeeded,
		Output: map[string]any{"replies": generated},
	}, nil
}

func (h *Handler) generateAll(ctx context.Context, executionCtx models.ExecutionContext, selected []any) ([]any, error) {
	generated := make([]any, len(selected))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(h.concurrency)

	for i, rawItem := range selected {
		group.Go(func() error {
			item, _ := rawItem.(map[string]any)

			prompt := h.buildPrompt(executionCtx, item)

			callCtx, cancel := context.WithTimeout(groupCtx, h.timeout)
			defer cancel()

			content, err := h.generator.GenerateContent(callCtx, prompt)
			if err != nil {
				return fmt.Errorf("%w: target %v: %w", protocol.ErrGenerationFailed, targetID(item), err)
			}

			generated[i] = map[string]any{
				"target":   item,
				"content":  content.Content,
				"provider": content.Provider,
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return generated, nil
}

func (h *Handler) buildPrompt(executionCtx models.ExecutionContext, item map[string]any) protocol.PromptContext {
	prompt := protocol.PromptContext{
		Instruction: h.instruction,
		Input:       item,
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

// simulatedReplies produces deterministic stand-ins so mock scan data
// never spends provider quota.
func simulatedReplies(selected []any) []any {
	replies := make([]any, len(selected))

	for i, rawItem := range selected {
		item, _ := rawItem.(map[string]any)

		replies[i] = map[string]any{
			"target":    item,
			"content":   fmt.Sprintf("[simulated reply to %v]", targetID(item)),
			"simulated": true,
		}
	}

	return replies
}

func targetID(item map[string]any) any {
	if item == nil {
		return "unknown"
	}

	if id, ok := item["id"]; ok {
		return id
	}

	return "unknown"
}

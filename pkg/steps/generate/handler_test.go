package generate_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/protocol"
	"github.com/growloop/growloop/pkg/steps/generate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type stubGenerator struct {
	lastPrompt protocol.PromptContext
	content    *protocol.GeneratedContent
	err        error
}

func (g *stubGenerator) GenerateContent(_ context.Context, prompt protocol.PromptContext) (*protocol.GeneratedContent, error) {
	g.lastPrompt = prompt

	if g.err != nil {
		return nil, g.err
	}

	return g.content, nil
}

func (g *stubGenerator) GenerateBlueprint(_ context.Context, _ protocol.ProjectContext) (*models.Blueprint, error) {
	return nil, errors.New("not implemented")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("test")
}

func TestExecuteAttributesProviderInOutput(t *testing.T) {
	t.Parallel()

	generator := &stubGenerator{content: &protocol.GeneratedContent{
		Content:  "A full draft.",
		Provider: "anthropic",
		Model:    "claude-sonnet",
	}}

	handler, err := generate.NewHandler(models.StepGenerateDraft, map[string]any{}, generator, testTracer())
	require.NoError(t, err)

	result, err := handler.Execute(context.Background(), models.ExecutionContext{
		Project: &models.Project{Name: "Acme", Description: "Dev tools"},
		Pillar:  &models.Pillar{Name: "Launch", Platform: "x"},
	}, testLogger())

	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusReviewNeeded, result.Status)
	assert.Equal(t, "A full draft.", result.Output["content"])
	assert.Equal(t, "anthropic", result.Output["provider"])
	assert.Equal(t, "claude-sonnet", result.Output["model"])
	assert.Contains(t, result.Output, "duration_ms")

	assert.Equal(t, "Acme", generator.lastPrompt.ProjectName)
	assert.Equal(t, "Launch", generator.lastPrompt.Pillar)
	assert.Equal(t, "x", generator.lastPrompt.Platform)
}

func TestExecuteChainsPredecessorOutputIntoPrompt(t *testing.T) {
	t.Parallel()

	generator := &stubGenerator{content: &protocol.GeneratedContent{Content: "draft", Provider: "openai"}}

	handler, err := generate.NewHandler(models.StepGenerateDraft, map[string]any{}, generator, testTracer())
	require.NoError(t, err)

	chained := map[string]any{"content": "the outline"}

	_, err = handler.Execute(context.Background(), models.ExecutionContext{
		ChainedInput: chained,
	}, testLogger())

	require.NoError(t, err)
	assert.Equal(t, chained, generator.lastPrompt.Input)
}

func TestExecuteWrapsProviderFailure(t *testing.T) {
	t.Parallel()

	generator := &stubGenerator{err: errors.New("upstream 503")}

	handler, err := generate.NewHandler(models.StepGenerateOutline, map[string]any{}, generator, testTracer())
	require.NoError(t, err)

	result, err := handler.Execute(context.Background(), models.ExecutionContext{}, testLogger())

	require.ErrorIs(t, err, protocol.ErrGenerationFailed)
	assert.Nil(t, result)
}

func TestNewHandlerDefaultInstructionPerStepType(t *testing.T) {
	t.Parallel()

	generator := &stubGenerator{content: &protocol.GeneratedContent{Content: "x", Provider: "openai"}}

	outline, err := generate.NewHandler(models.StepGenerateOutline, map[string]any{}, generator, testTracer())
	require.NoError(t, err)

	_, err = outline.Execute(context.Background(), models.ExecutionContext{}, testLogger())
	require.NoError(t, err)
	assert.Contains(t, generator.lastPrompt.Instruction, "outline")

	draft, err := generate.NewHandler(models.StepGenerateDraft, map[string]any{
		"instruction": "Use a playful tone.",
	}, generator, testTracer())
	require.NoError(t, err)

	_, err = draft.Execute(context.Background(), models.ExecutionContext{}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "Use a playful tone.", generator.lastPrompt.Instruction)
}

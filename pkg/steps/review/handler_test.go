package review_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/steps/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecuteCarriesChainedInputToReviewer(t *testing.T) {
	t.Parallel()

	handler := review.NewHandler(models.StepReviewContent)

	result, err := handler.Execute(context.Background(), models.ExecutionContext{
		ChainedInput: map[string]any{"content": "draft body"},
	}, testLogger())

	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusReviewNeeded, result.Status)
	assert.Equal(t, "draft body", result.Output["content"])
	assert.Equal(t, true, result.Output["awaiting_approval"])
}

func TestFactoryOnlyAcceptsGateTypes(t *testing.T) {
	t.Parallel()

	for _, stepType := range []models.StepType{models.StepReviewContent, models.StepWaitApproval} {
		factory, err := review.NewFactory(stepType)
		require.NoError(t, err)
		assert.Equal(t, stepType, factory.ID())
	}

	_, err := review.NewFactory(models.StepPostAPI)
	require.Error(t, err)
}

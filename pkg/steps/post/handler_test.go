package post_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/steps/post"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecuteNeverAutoPublishes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stepType models.StepType
		mode     string
	}{
		{models.StepPostAPI, "api"},
		{models.StepPostReply, "reply"},
		{models.StepPostExtension, "extension"},
	}

	for _, tt := range tests {
		t.Run(string(tt.stepType), func(t *testing.T) {
			t.Parallel()

			draft := map[string]any{"content": "ready to ship"}

			result, err := post.NewHandler(tt.stepType).Execute(context.Background(), models.ExecutionContext{
				ChainedInput: draft,
				Pillar:       &models.Pillar{Platform: "x"},
			}, testLogger())

			require.NoError(t, err)
			assert.Equal(t, models.TaskStatusReviewNeeded, result.Status)
			assert.Equal(t, tt.mode, result.Output["post_mode"])
			assert.Equal(t, draft, result.Output["draft"])
			assert.Equal(t, true, result.Output["requires_approval"])
			assert.Equal(t, "x", result.Output["platform"])
		})
	}
}

func TestFactoryRejectsNonPostTypes(t *testing.T) {
	t.Parallel()

	_, err := post.NewFactory(models.StepScanFeed)
	require.Error(t, err)
}

// Package scanfeed implements the scan_feed step: a deferral to the
// external browser extension, never completable synchronously.
package scanfeed

import (
	"context"
	"log/slog"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/protocol"
)

const defaultScanLimit = 20

type Handler struct {
	platform string
	limit    int
}

func NewHandler(config map[string]any) (*Handler, error) {
	platform, _ := config["platform"].(string)

	limit := defaultScanLimit
	if raw, ok := config["limit"].(float64); ok && raw > 0 {
		limit = int(raw)
	}

	return &Handler{platform: platform, limit: limit}, nil
}

// Execute never calls the AI capability and never produces data itself:
// it hands the work descriptor to the extension queue and the external
// worker reports the scan result asynchronously.
func (h *Handler) Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (*models.StepResult, error) {
	platform := h.platform
	if platform == "" && executionCtx.Pillar != nil {
		platform = executionCtx.Pillar.Platform
	}

	logger.InfoContext(ctx, "Queueing feed scan for extension",
		"platform", platform, "limit", h.limit)

	return &models.StepResult{
		Status: models.TaskStatusExtensionQueued,
		Output: map[string]any{
			"pending_extension": true,
			"platform":          platform,
			"limit":             h.limit,
		},
	}, nil
}

const schema = `{
	"type": "object",
	"properties": {
		"platform": {"type": "string"},
		"limit": {"type": "number", "minimum": 1, "maximum": 100}
	},
	"additionalProperties": true
}`

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() models.StepType {
	return models.StepScanFeed
}

func (f *Factory) Schema() string {
	return schema
}

func (f *Factory) Create(config map[string]any) (protocol.StepHandler, error) {
	return NewHandler(config)
}

// Package protocol defines the contracts between the workflow engine and
// its pluggable parts: step handlers and AI content providers.
package protocol

import (
	"context"
	"log/slog"

	"github.com/growloop/growloop/pkg/models"
)

// StepHandler executes one step type. Handlers are pure with respect to
// the store: they return a result descriptor and never persist anything
// themselves.
type StepHandler interface {
	Execute(ctx context.Context, executionCtx models.ExecutionContext, logger *slog.Logger) (*models.StepResult, error)
}

// HandlerFactory builds a handler for a step type from the step's config
// map. Schema returns the JSON schema the config is validated against
// before Create is called.
type HandlerFactory interface {
	ID() models.StepType
	Schema() string
	Create(config map[string]any) (StepHandler, error)
}

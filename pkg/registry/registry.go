// Package registry maps step types to their handler factories and
// validates step configuration against per-type JSON schemas.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

// ErrUnsupportedStepType is returned when a workflow declares a step
// type no factory is registered for. Terminal for the task instance: the
// workflow config has to be fixed, retrying cannot help.
var ErrUnsupportedStepType = errors.New("unsupported step type")

// ErrInvalidStepConfig wraps schema validation failures of step config.
var ErrInvalidStepConfig = errors.New("invalid step configuration")

type Registry struct {
	logger    *slog.Logger
	factories map[models.StepType]protocol.HandlerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.StepType]protocol.HandlerFactory),
	}
}

func (r *Registry) Register(factory protocol.HandlerFactory) {
	r.factories[factory.ID()] = factory
}

// StepTypes returns the registered step types.
func (r *Registry) StepTypes() []models.StepType {
	types := make([]models.StepType, 0, len(r.factories))
	for stepType := range r.factories {
		types = append(types, stepType)
	}

	return types
}

// CreateHandler validates the config against the factory's schema and
// builds the handler for the given step type.
func (r *Registry) CreateHandler(stepType models.StepType, config map[string]any) (protocol.StepHandler, error) {
	factory, ok := r.factories[stepType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStepType, stepType)
	}

	if err := validateConfig(factory.Schema(), config); err != nil {
		return nil, err
	}

	return factory.Create(config)
}

// HealthCheck reports whether the registry has handlers to dispatch to.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.factories) == 0 {
		return "No step handlers registered", false
	}

	return fmt.Sprintf("%d step handlers registered", len(r.factories)), true
}

func validateConfig(schema string, config map[string]any) error {
	if schema == "" {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	schemaLoader := gojsonschema.NewStringLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate step config: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultError := range result.Errors() {
			details = append(details, resultError.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidStepConfig, strings.Join(details, "; "))
	}

	return nil
}

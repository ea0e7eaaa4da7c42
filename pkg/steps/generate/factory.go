package generate

import (
	"fmt"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/protocol"
	"go.opentelemetry.io/otel/trace"
)

const schema = `{
	"type": "object",
	"properties": {
		"instruction": {"type": "string"},
		"timeout_seconds": {"type": "number", "minimum": 1}
	},
	"additionalProperties": true
}`

type Factory struct {
	stepType  models.StepType
	generator protocol.ContentGenerator
	tracer    trace.Tracer
}

// NewFactory builds a factory for one of the two generation step types.
func NewFactory(stepType models.StepType, generator protocol.ContentGenerator, tracer trace.Tracer) (*Factory, error) {
	if stepType != models.StepGenerateDraft && stepType != models.StepGenerateOutline {
		return nil, fmt.Errorf("generate factory cannot handle step type %s", stepType)
	}

	return &Factory{stepType: stepType, generator: generator, tracer: tracer}, nil
}

func (f *Factory) ID() models.StepType {
	return f.stepType
}

func (f *Factory) Schema() string {
	return schema
}

func (f *Factory) Create(config map[string]any) (protocol.StepHandler, error) {
	return NewHandler(f.stepType, config, f.generator, f.tracer)
}

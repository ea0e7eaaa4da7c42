package replies

import (
	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/protocol"
	"go.opentelemetry.io/otel/trace"
)

const schema = `{
	"type": "object",
	"properties": {
		"instruction": {"type": "string"},
		"timeout_seconds": {"type": "number", "minimum": 1},
		"concurrency": {"type": "number", "minimum": 1, "maximum": 16}
	},
	"additionalProperties": true
}`

type Factory struct {
	generator protocol.ContentGenerator
	tracer    trace.Tracer
}

func NewFactory(generator protocol.ContentGenerator, tracer trace.Tracer) *Factory {
	return &Factory{generator: generator, tracer: tracer}
}

func (f *Factory) ID() models.StepType {
	return models.StepGenerateReplies
}

func (f *Factory) Schema() string {
	return schema
}

func (f *Factory) Create(config map[string]any) (protocol.StepHandler, error) {
	return NewHandler(config, f.generator, f.tracer)
}

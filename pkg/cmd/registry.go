// Package cmd provides common initialization for the command-line
// binaries: step registry, persistence, event bus, and step locking.
package cmd

import (
	"log/slog"

	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/protocol"
	"github.com/growloop/growloop/pkg/registry"
	"github.com/growloop/growloop/pkg/steps/generate"
	"github.com/growloop/growloop/pkg/steps/post"
	"github.com/growloop/growloop/pkg/steps/replies"
	"github.com/growloop/growloop/pkg/steps/review"
	"github.com/growloop/growloop/pkg/steps/scanfeed"
	"github.com/growloop/growloop/pkg/steps/selecttargets"
	"go.opentelemetry.io/otel/trace"
)

// NewRegistry builds a registry with every built-in step handler
// registered.
func NewRegistry(logger *slog.Logger, generator protocol.ContentGenerator, tracer trace.Tracer) *registry.Registry {
	reg := registry.NewRegistry(logger)

	registerGenerateSteps(reg, generator, tracer)
	registerExtensionSteps(reg)
	registerGateSteps(reg)

	reg.Register(replies.NewFactory(generator, tracer))

	return reg
}

func registerGenerateSteps(reg *registry.Registry, generator protocol.ContentGenerator, tracer trace.Tracer) {
	for _, stepType := range []models.StepType{models.StepGenerateDraft, models.StepGenerateOutline} {
		factory, err := generate.NewFactory(stepType, generator, tracer)
		if err != nil {
			panic(err)
		}

		reg.Register(factory)
	}
}

func registerExtensionSteps(reg *registry.Registry) {
	reg.Register(scanfeed.NewFactory())
	reg.Register(selecttargets.NewFactory())

	for _, stepType := range []models.StepType{models.StepPostAPI, models.StepPostReply, models.StepPostExtension} {
		factory, err := post.NewFactory(stepType)
		if err != nil {
			panic(err)
		}

		reg.Register(factory)
	}
}

func registerGateSteps(reg *registry.Registry) {
	for _, stepType := range []models.StepType{models.StepReviewContent, models.StepWaitApproval} {
		factory, err := review.NewFactory(stepType)
		if err != nil {
			panic(err)
		}

		reg.Register(factory)
	}
}

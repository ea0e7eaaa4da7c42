package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/growloop/growloop/pkg/engagement"
	"github.com/growloop/growloop/pkg/persistence"
	"github.com/growloop/growloop/pkg/registry"
	"github.com/growloop/growloop/pkg/runner"
	"github.com/growloop/growloop/pkg/services"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleEngineError maps engine and service errors to RFC-7807 problem
// responses with stable type codes.
func handleEngineError(c fiber.Ctx, err error) error {
	var blocked *runner.WorkflowBlockedError

	switch {
	case errors.As(err, &blocked):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("workflow_blocked").
			WithDetail(blocked.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case errors.Is(err, runner.ErrStepLocked):
		return conflict(c, "step_locked", err.Error())

	case errors.Is(err, runner.ErrIllegalTransition):
		return conflict(c, "illegal_transition", err.Error())

	case errors.Is(err, registry.ErrUnsupportedStepType):
		return badRequest(c, err.Error())

	case errors.Is(err, registry.ErrInvalidStepConfig):
		return badRequest(c, err.Error())

	case errors.Is(err, engagement.ErrInvalidSchedule):
		return badRequest(c, err.Error())

	case errors.Is(err, engagement.ErrJobNotActive):
		return conflict(c, "engagement_job_not_active", err.Error())

	case services.IsValidation(err):
		return badRequest(c, err.Error())

	case services.IsAuthentication(err):
		problem := problems.NewStatusProblem(401).
			WithInstance(c.Path()).
			WithType("authentication_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnauthorized).JSON(problem)

	case persistence.IsProjectNotFound(err):
		return notFound(c, "project_not_found", "project not found")

	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "workflow_not_found", "workflow not found")

	case persistence.IsStepNotFound(err):
		return notFound(c, "step_not_found", "step not found")

	case persistence.IsTaskNotFound(err):
		return notFound(c, "task_not_found", "task not found")

	case persistence.IsEngagementJobNotFound(err):
		return notFound(c, "engagement_job_not_found", "engagement job not found")

	default:
		return internalError(c, err)
	}
}

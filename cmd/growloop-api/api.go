// Package main provides the Growloop API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/growloop/growloop/pkg/engagement"
	"github.com/growloop/growloop/pkg/eventbus"
	"github.com/growloop/growloop/pkg/lock"
	"github.com/growloop/growloop/pkg/persistence"
	"github.com/growloop/growloop/pkg/protocol"
	"github.com/growloop/growloop/pkg/registry"
	"github.com/growloop/growloop/pkg/runner"
	"github.com/growloop/growloop/pkg/services"
	"github.com/growloop/growloop/pkg/web"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	locker      lock.Locker
	generator   protocol.ContentGenerator
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	locker lock.Locker,
	generator protocol.ContentGenerator,
	tracer trace.Tracer,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		locker:      locker,
		generator:   generator,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowRunner := runner.NewRunner(a.persistence, a.registry, a.locker, a.eventBus, a.logger, a.tracer)
	scheduler := engagement.NewScheduler(a.persistence, a.eventBus, a.logger)
	blueprintService := services.NewBlueprintService(a.persistence, a.generator, a.logger)

	handlers := web.NewAPIHandlers(workflowRunner, scheduler, blueprintService, a.persistence, a.registry, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Growloop API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Get("/:id", handlers.GetWorkflow)
	w.Post("/:id/execute", handlers.ExecuteWorkflow)
	w.Post("/:id/steps/:stepId/rerun", handlers.RerunStep)

	t := app.Group("/tasks")
	t.Post("/:id/approve", handlers.ApproveTask)
	t.Post("/:id/reject", handlers.RejectTask)

	e := app.Group("/extension")
	e.Get("/poll", handlers.ExtensionPoll)
	e.Post("/results", handlers.ExtensionResults)

	p := app.Group("/projects")
	p.Get("/:id/tasks", handlers.GetProjectTasks)
	p.Post("/:id/engagement-jobs", handlers.CreateEngagementJob)
	p.Post("/:id/blueprint", handlers.GenerateBlueprint)

	j := app.Group("/engagement-jobs")
	j.Get("/poll", handlers.PollEngagementJobs)
	j.Post("/:id/result", handlers.ReportEngagementResult)
	j.Post("/:id/trigger", handlers.TriggerEngagementJob)
	j.Post("/:id/stop", handlers.StopEngagementJob)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}

package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/growloop/growloop/pkg/engagement"
	"github.com/growloop/growloop/pkg/models"
	"github.com/growloop/growloop/pkg/persistence"
	"github.com/growloop/growloop/pkg/registry"
	"github.com/growloop/growloop/pkg/runner"
	"github.com/growloop/growloop/pkg/services"
)

const defaultEngagementPollLimit = 10

type APIHandlers struct {
	runner           *runner.Runner
	scheduler        *engagement.Scheduler
	blueprintService *services.BlueprintService
	persistence      persistence.Persistence
	registry         *registry.Registry
	validator        *validator.Validate
}

func NewAPIHandlers(
	r *runner.Runner,
	scheduler *engagement.Scheduler,
	blueprintService *services.BlueprintService,
	p persistence.Persistence,
	reg *registry.Registry,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		runner:           r,
		scheduler:        scheduler,
		blueprintService: blueprintService,
		persistence:      p,
		registry:         reg,
		validator:        validator,
	}
}

// ExecuteWorkflow advances a workflow by one step and reports the
// outcome. Completion of an already-complete workflow is a success, not
// an error.
func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	result, err := h.runner.Execute(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(result)
}

// RerunStep forces a fresh execution attempt for a single step.
func (h *APIHandlers) RerunStep(c fiber.Ctx) error {
	workflowID := c.Params("id")
	stepID := c.Params("stepId")

	if workflowID == "" || stepID == "" {
		return badRequest(c, "Workflow ID and step ID are required")
	}

	result, err := h.runner.Rerun(c.Context(), workflowID, stepID)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) ApproveTask(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Task ID is required")
	}

	task, err := h.runner.Lifecycle().ApproveTask(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(task)
}

func (h *APIHandlers) RejectTask(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Task ID is required")
	}

	var req RejectTaskRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	task, err := h.runner.Lifecycle().RejectTask(c.Context(), id, req.Reason)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(task)
}

// ExtensionPoll serves the longest-waiting queued task to the external
// worker, or a null task when the queue is empty. Pull model: the worker
// cannot accept inbound connections.
func (h *APIHandlers) ExtensionPoll(c fiber.Ctx) error {
	task, err := h.persistence.TaskRepository().OldestExtensionQueued(c.Context())
	if err != nil {
		return handleEngineError(c, err)
	}

	if task == nil {
		return c.JSON(fiber.Map{"task": nil})
	}

	return c.JSON(fiber.Map{"task": TransformExtensionTask(task)})
}

// ExtensionResults accepts the worker's report for a queued task.
// Duplicate reports are tolerated; the later snapshot wins.
func (h *APIHandlers) ExtensionResults(c fiber.Ctx) error {
	var req ExtensionResultRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := &models.StepResult{
		Status: models.TaskStatus(req.Status),
		Output: req.Result,
	}

	task, duplicate, err := h.runner.Lifecycle().ReportExtensionResult(c.Context(), req.TaskID, result)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(fiber.Map{
		"task":      task,
		"duplicate": duplicate,
	})
}

func (h *APIHandlers) CreateEngagementJob(c fiber.Ctx) error {
	projectID := c.Params("id")
	if projectID == "" {
		return badRequest(c, "Project ID is required")
	}

	var req CreateEngagementJobRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	job, err := h.scheduler.CreateJob(c.Context(), engagement.CreateJobRequest{
		ProjectID:    projectID,
		TargetURL:    req.TargetURL,
		SourceTaskID: req.SourceTaskID,
		DurationDays: req.DurationDays,
		PollSchedule: req.PollSchedule,
	})
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(job)
}

func (h *APIHandlers) PollEngagementJobs(c fiber.Ctx) error {
	limit := defaultEngagementPollLimit

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			return badRequest(c, "Invalid limit parameter")
		}

		limit = parsed
	}

	jobs, err := h.scheduler.PollJobs(c.Context(), limit)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(fiber.Map{"jobs": jobs})
}

func (h *APIHandlers) ReportEngagementResult(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Engagement job ID is required")
	}

	var req ReportMetricsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	job, err := h.scheduler.ReportMetrics(c.Context(), id, models.EngagementMetrics{
		Views:   req.Views,
		Likes:   req.Likes,
		Replies: req.Replies,
		Reposts: req.Reposts,
	})
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(job)
}

func (h *APIHandlers) TriggerEngagementJob(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Engagement job ID is required")
	}

	job, err := h.scheduler.TriggerNow(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(job)
}

func (h *APIHandlers) StopEngagementJob(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Engagement job ID is required")
	}

	job, err := h.scheduler.StopJob(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(job)
}

// GenerateBlueprint regenerates a project's pillars and workflows from
// an AI proposal, replacing the existing layout.
func (h *APIHandlers) GenerateBlueprint(c fiber.Ctx) error {
	projectID := c.Params("id")
	if projectID == "" {
		return badRequest(c, "Project ID is required")
	}

	blueprint, err := h.blueprintService.GenerateBlueprint(c.Context(), projectID)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(blueprint)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	if projectID := c.Query("project_id"); projectID != "" {
		workflows, err := h.persistence.WorkflowRepository().ListByProject(c.Context(), projectID)
		if err != nil {
			return handleEngineError(c, err)
		}

		return c.JSON(fiber.Map{"workflows": workflows})
	}

	workflows, err := h.persistence.WorkflowRepository().List(c.Context())
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.persistence.WorkflowRepository().GetByID(c.Context(), id)
	if err != nil {
		return handleEngineError(c, err)
	}

	if workflow == nil {
		return notFound(c, "workflow_not_found", "workflow not found")
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) GetProjectTasks(c fiber.Ctx) error {
	projectID := c.Params("id")
	if projectID == "" {
		return badRequest(c, "Project ID is required")
	}

	tasks, err := h.persistence.TaskRepository().ListByProject(c.Context(), projectID)
	if err != nil {
		return handleEngineError(c, err)
	}

	return c.JSON(fiber.Map{"tasks": tasks})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	storeErr := h.persistence.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && storeErr == nil {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	storeCheck := "persistence reachable"
	if storeErr != nil {
		storeCheck = storeErr.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"registry":    registryCheck,
			"persistence": storeCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/middleware"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/service"
	"github.com/noah-isme/peergrade-api/internal/utils"
)

// TaskHandler exposes task management, the grading lifecycle and per-task submission queries.
type TaskHandler struct {
	tasks       service.TaskService
	lifecycle   service.GradingLifecycleService
	submissions service.SubmissionService
	activity    service.ActivityService
	logger      zerolog.Logger
}

// NewTaskHandler constructs a task handler.
func NewTaskHandler(tasks service.TaskService, lifecycle service.GradingLifecycleService, submissions service.SubmissionService, activity service.ActivityService, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:       tasks,
		lifecycle:   lifecycle,
		submissions: submissions,
		activity:    activity,
		logger:      logger.With().Str("component", "task_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *TaskHandler) Register(router fiber.Router) {
	teacherOnly := middleware.RequireRole(models.RoleTeacher)
	studentOnly := func(next fiber.Handler) fiber.Handler {
		return middleware.WithAuth(next, middleware.AuthOptions{Role: middleware.AuthRoleStudent})
	}

	router.Get("", h.list)
	router.Post("", teacherOnly, h.create)
	router.Get("/:taskId", h.get)
	router.Put("/:taskId", teacherOnly, h.update)
	router.Delete("/:taskId", teacherOnly, h.delete)
	router.Patch("/:taskId/grading-status", teacherOnly, h.transition)
	router.Post("/:taskId/grading/reaggregate", teacherOnly, h.reaggregate)
	router.Get("/:taskId/activity", teacherOnly, h.listActivity)
	router.Get("/:taskId/submissions", teacherOnly, h.listSubmissions)
	router.Get("/:taskId/submission", studentOnly(h.ownSubmission))
	router.Get("/:taskId/has-submitted", studentOnly(h.hasSubmitted))
}

func (h *TaskHandler) list(c *fiber.Ctx) error {
	tasks, err := h.tasks.List(requestContext(c), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "tasks retrieved", tasks)
}

func (h *TaskHandler) create(c *fiber.Ctx) error {
	var payload dto.TaskCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	task, err := h.tasks.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "task created", task)
}

func (h *TaskHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.tasks.Get(requestContext(c), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "task retrieved", task)
}

func (h *TaskHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.TaskUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	task, err := h.tasks.Update(requestContext(c), id, actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "task updated", task)
}

func (h *TaskHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.tasks.Delete(requestContext(c), id, actorFromContext(c)); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "task deleted", nil)
}

func (h *TaskHandler) transition(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.GradingStatusUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	next, err := models.ParseGradingStatus(payload.Status)
	if err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.lifecycle.Transition(requestContext(c), id, next, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("task_id", id).
		Str("status", string(next)).
		Msg("grading status updated")

	return utils.SendSuccess(c, "grading status updated", task)
}

func (h *TaskHandler) reaggregate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.lifecycle.Reaggregate(requestContext(c), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "grading results recomputed", resp)
}

func (h *TaskHandler) listActivity(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	page, err := parseQueryInt(c, "page")
	if err != nil {
		return badRequest(c, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return badRequest(c, "invalid page_size")
	}

	req := dto.ActivityListRequest{TaskID: id, Page: page, PageSize: pageSize}
	result, err := h.activity.ListForTask(requestContext(c), actorFromContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.OK(c, result.Items, "activity retrieved", result.Pagination)
}

func (h *TaskHandler) listSubmissions(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	submissions, err := h.submissions.ListForTask(requestContext(c), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *TaskHandler) ownSubmission(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	submission, err := h.submissions.GetOwn(requestContext(c), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *TaskHandler) hasSubmitted(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.submissions.HasSubmitted(requestContext(c), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "submission state retrieved", resp)
}

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

// CourseHandler manages courses, enrollments and course task listings.
type CourseHandler struct {
	courses service.CourseService
	tasks   service.TaskService
	logger  zerolog.Logger
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(courses service.CourseService, tasks service.TaskService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courses: courses,
		tasks:   tasks,
		logger:  logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *CourseHandler) Register(router fiber.Router) {
	teacherOnly := middleware.RequireRole(models.RoleTeacher)

	router.Get("", h.list)
	router.Post("", teacherOnly, h.create)
	router.Get("/:id", h.get)
	router.Put("/:id", teacherOnly, h.update)
	router.Delete("/:id", teacherOnly, h.delete)
	router.Get("/:id/students", h.listStudents)
	router.Post("/:id/students", teacherOnly, h.enroll)
	router.Get("/:id/tasks", h.listTasks)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	courses, err := h.courses.List(requestContext(c), actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	course, err := h.courses.Create(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	course, err := h.courses.Get(requestContext(c), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.CourseUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	course, err := h.courses.Update(requestContext(c), id, actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "course updated", course)
}

func (h *CourseHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.courses.Delete(requestContext(c), id, actorFromContext(c)); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "course deleted", nil)
}

func (h *CourseHandler) enroll(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var payload dto.EnrollStudentRequest
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.courses.Enroll(requestContext(c), id, actorFromContext(c), payload); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "student enrolled", fiber.Map{"course_id": id, "student_id": payload.StudentID})
}

func (h *CourseHandler) listStudents(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	students, err := h.courses.ListStudents(requestContext(c), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *CourseHandler) listTasks(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	tasks, err := h.tasks.ListByCourse(requestContext(c), id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "tasks retrieved", tasks)
}

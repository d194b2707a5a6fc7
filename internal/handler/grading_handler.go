package handler

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/service"
	"github.com/noah-isme/peergrade-api/internal/utils"
)

// GradingHandler exposes the peer review workflow: workloads, grade batches and results.
type GradingHandler struct {
	assignments service.PeerAssignmentService
	grades      service.GradeService
	results     service.ResultService
	logger      zerolog.Logger
}

// NewGradingHandler constructs a grading handler.
func NewGradingHandler(assignments service.PeerAssignmentService, grades service.GradeService, results service.ResultService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		assignments: assignments,
		grades:      grades,
		results:     results,
		logger:      logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register wires grading routes. submitLimiter guards the grade submission endpoint and may be nil.
func (h *GradingHandler) Register(router fiber.Router, submitLimiter fiber.Handler) {
	router.Get("/submissions/:id/results", h.submissionReviews)
	router.Get("/:taskId", h.requestAssignment)
	if submitLimiter != nil {
		router.Put("/:taskId", submitLimiter, h.submitGrades)
	} else {
		router.Put("/:taskId", h.submitGrades)
	}
	router.Get("/:taskId/results", h.listResults)
	router.Get("/:taskId/has-graded", h.hasGraded)
}

func (h *GradingHandler) requestAssignment(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	workload, err := h.assignments.Request(requestContext(c), taskID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions assigned for review", workload)
}

func (h *GradingHandler) submitGrades(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	payload, err := decodeGradeBatch(c.Body())
	if err != nil {
		return badRequest(c, "invalid request body")
	}

	if err := h.grades.Submit(requestContext(c), taskID, actorFromContext(c), payload.Grades); err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "grades submitted", fiber.Map{"graded": len(payload.Grades)})
}

func (h *GradingHandler) listResults(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	results, err := h.results.List(requestContext(c), taskID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "grading results retrieved", results)
}

func (h *GradingHandler) hasGraded(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "taskId")
	if err != nil {
		return badRequest(c, err.Error())
	}

	resp, err := h.grades.HasGraded(requestContext(c), taskID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "grading state retrieved", resp)
}

func (h *GradingHandler) submissionReviews(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	reviews, err := h.grades.ListSubmissionReviews(requestContext(c), submissionID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission reviews retrieved", reviews)
}

// decodeGradeBatch accepts either a bare array of entries or an object with a grades field.
func decodeGradeBatch(body []byte) (dto.GradeSubmissionRequest, error) {
	trimmed := bytes.TrimSpace(body)
	var payload dto.GradeSubmissionRequest
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &payload.Grades); err != nil {
			return dto.GradeSubmissionRequest{}, err
		}
		return payload, nil
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return dto.GradeSubmissionRequest{}, err
	}
	return payload, nil
}

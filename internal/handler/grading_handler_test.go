package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/handler"
	"github.com/noah-isme/peergrade-api/internal/service"
)

type stubAssignmentService struct {
	workload  []dto.SubmissionResponse
	err       error
	lastActor service.Actor
	lastTask  uint
}

func (s *stubAssignmentService) Request(_ context.Context, taskID uint, actor service.Actor) ([]dto.SubmissionResponse, error) {
	s.lastTask = taskID
	s.lastActor = actor
	return s.workload, s.err
}

type stubGradeService struct {
	submitErr   error
	lastEntries []dto.GradeEntry
	hasGraded   bool
	reviews     []dto.SubmissionGradeResponse
}

func (s *stubGradeService) Submit(_ context.Context, _ uint, _ service.Actor, entries []dto.GradeEntry) error {
	s.lastEntries = entries
	return s.submitErr
}

func (s *stubGradeService) HasGraded(context.Context, uint, service.Actor) (dto.HasGradedResponse, error) {
	return dto.HasGradedResponse{HasGraded: s.hasGraded}, nil
}

func (s *stubGradeService) ListSubmissionReviews(context.Context, uint, service.Actor) ([]dto.SubmissionGradeResponse, error) {
	return s.reviews, nil
}

type stubResultService struct {
	results []dto.GradingResultResponse
	err     error
}

func (s *stubResultService) List(context.Context, uint, service.Actor) ([]dto.GradingResultResponse, error) {
	return s.results, s.err
}

func (s *stubResultService) Invalidate(context.Context, uint) {}

func newGradingApp(actor service.Actor, assignments *stubAssignmentService, grades *stubGradeService, results *stubResultService) *fiber.App {
	app := newTestApp(actor)
	h := handler.NewGradingHandler(assignments, grades, results, zerolog.Nop())
	h.Register(app.Group("/api/v1/grading"), nil)
	return app
}

func TestGradingHandler_RequestAssignmentPassesActor(t *testing.T) {
	assignments := &stubAssignmentService{workload: []dto.SubmissionResponse{{ID: 4, TaskID: 9, FileURL: "https://files/4.pdf"}}}
	actor := service.Actor{ID: 12, Role: "student"}
	app := newGradingApp(actor, assignments, &stubGradeService{}, &stubResultService{})

	resp := doRequest(t, app, http.MethodGet, "/api/v1/grading/9", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)

	var workload []dto.SubmissionResponse
	require.NoError(t, json.Unmarshal(body.Data, &workload))
	require.Len(t, workload, 1)
	require.Nil(t, workload[0].Student)
	require.Equal(t, uint(9), assignments.lastTask)
	require.Equal(t, actor, assignments.lastActor)
}

func TestGradingHandler_InvalidTaskID(t *testing.T) {
	app := newGradingApp(service.Actor{ID: 1, Role: "student"}, &stubAssignmentService{}, &stubGradeService{}, &stubResultService{})

	resp := doRequest(t, app, http.MethodGet, "/api/v1/grading/abc", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	require.Equal(t, "VALIDATION_FAILED", body.Code)
}

func TestGradingHandler_SubmitAcceptsBothBodyShapes(t *testing.T) {
	cases := []struct {
		name string
		body interface{}
	}{
		{name: "bare array", body: []map[string]int{{"submission_id": 3, "grade": 2}, {"submission_id": 5, "grade": 1}}},
		{name: "wrapped", body: map[string]interface{}{"grades": []map[string]int{{"submission_id": 3, "grade": 2}, {"submission_id": 5, "grade": 1}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grades := &stubGradeService{}
			app := newGradingApp(service.Actor{ID: 2, Role: "student"}, &stubAssignmentService{}, grades, &stubResultService{})

			resp := doRequest(t, app, http.MethodPut, "/api/v1/grading/7", tc.body)
			require.Equal(t, fiber.StatusOK, resp.StatusCode)
			require.Equal(t, []dto.GradeEntry{{SubmissionID: 3, Grade: 2}, {SubmissionID: 5, Grade: 1}}, grades.lastEntries)
		})
	}
}

func TestGradingHandler_SubmitRejectsMalformedBody(t *testing.T) {
	grades := &stubGradeService{}
	app := newGradingApp(service.Actor{ID: 2, Role: "student"}, &stubAssignmentService{}, grades, &stubResultService{})

	resp := doRequest(t, app, http.MethodPut, "/api/v1/grading/7", "{not json")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Nil(t, grades.lastEntries)
}

func TestGradingHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "permission", err: service.ErrPermissionDenied, status: fiber.StatusForbidden, code: "PERMISSION_DENIED"},
		{name: "not enrolled", err: service.ErrNotEnrolled, status: fiber.StatusForbidden, code: "NOT_ENROLLED"},
		{name: "distribution", err: service.ErrInvalidGradeDistribution, status: fiber.StatusUnprocessableEntity, code: "INVALID_GRADE_DISTRIBUTION"},
		{name: "unknown assignment", err: service.ErrUnknownAssignment, status: fiber.StatusUnprocessableEntity, code: "UNKNOWN_ASSIGNMENT"},
		{name: "closed", err: service.ErrGradingClosed, status: fiber.StatusConflict, code: "GRADING_CLOSED"},
		{name: "task missing", err: service.ErrTaskNotFound, status: fiber.StatusNotFound, code: "TASK_NOT_FOUND"},
		{name: "wrapped", err: errors.Join(errors.New("batch"), service.ErrUnknownAssignment), status: fiber.StatusUnprocessableEntity, code: "UNKNOWN_ASSIGNMENT"},
		{name: "store failure", err: errors.New("connection reset"), status: fiber.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			grades := &stubGradeService{submitErr: tc.err}
			app := newGradingApp(service.Actor{ID: 2, Role: "student"}, &stubAssignmentService{}, grades, &stubResultService{})

			resp := doRequest(t, app, http.MethodPut, "/api/v1/grading/7", []map[string]int{{"submission_id": 3, "grade": 1}})
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope
			decodeResponse(t, resp, &body)
			require.False(t, body.Success)
			require.Equal(t, tc.code, body.Code)
			if tc.code == "INTERNAL_ERROR" {
				require.NotContains(t, body.Message, "connection reset")
			}
		})
	}
}

func TestGradingHandler_SubmitRateLimited(t *testing.T) {
	app := newTestApp(service.Actor{ID: 2, Role: "student"})
	limiter := func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusTooManyRequests)
	}
	grades := &stubGradeService{}
	handler.NewGradingHandler(&stubAssignmentService{}, grades, &stubResultService{}, zerolog.Nop()).
		Register(app.Group("/api/v1/grading"), limiter)

	resp := doRequest(t, app, http.MethodPut, "/api/v1/grading/7", []map[string]int{{"submission_id": 3, "grade": 1}})
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.Nil(t, grades.lastEntries)

	resp = doRequest(t, app, http.MethodGet, "/api/v1/grading/7/has-graded", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGradingHandler_SubmissionReviewsRouteWinsOverTaskID(t *testing.T) {
	grades := &stubGradeService{reviews: []dto.SubmissionGradeResponse{{ID: 1, SubmissionID: 3, Grade: ptrInt(2), Status: "DONE"}}}
	assignments := &stubAssignmentService{}
	app := newGradingApp(service.Actor{ID: 1, Role: "teacher"}, assignments, grades, &stubResultService{})

	resp := doRequest(t, app, http.MethodGet, "/api/v1/grading/submissions/3/results", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	var reviews []dto.SubmissionGradeResponse
	require.NoError(t, json.Unmarshal(body.Data, &reviews))
	require.Len(t, reviews, 1)
	require.Zero(t, assignments.lastTask)
}

func TestGradingResultsContract(t *testing.T) {
	schema := compileSchema(t, "grading_results.schema.json")

	now := time.Now().UTC()
	results := &stubResultService{results: []dto.GradingResultResponse{
		{
			ID:         2,
			TotalScore: 5,
			CreatedAt:  now,
			Submission: dto.SubmissionResponse{
				ID:        11,
				TaskID:    4,
				FileURL:   "https://cdn.example.com/11.pdf",
				Student:   &dto.UserResponse{ID: 21, Username: "ana"},
				CreatedAt: now.Add(-time.Hour),
			},
		},
		{
			ID:         1,
			TotalScore: 0,
			CreatedAt:  now,
			Submission: dto.SubmissionResponse{ID: 12, TaskID: 4, FileURL: "https://cdn.example.com/12.pdf", CreatedAt: now},
		},
	}}
	app := newGradingApp(service.Actor{ID: 1, Role: "teacher"}, &stubAssignmentService{}, &stubGradeService{}, results)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/grading/4/results", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload interface{}
	decodeResponse(t, resp, &payload)
	require.NoError(t, schema.Validate(payload))
}

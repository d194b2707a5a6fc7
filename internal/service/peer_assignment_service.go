package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/observability"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// PeerAssignmentService hands each grader the peer submissions they must review.
type PeerAssignmentService interface {
	Request(ctx context.Context, taskID uint, actor Actor) ([]dto.SubmissionResponse, error)
}

type peerAssignmentService struct {
	tasks       repository.TaskRepository
	courses     repository.CourseRepository
	submissions repository.SubmissionRepository
	grades      repository.SubmissionGradeRepository
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewPeerAssignmentService constructs the assignment engine.
func NewPeerAssignmentService(tasks repository.TaskRepository, courses repository.CourseRepository, submissions repository.SubmissionRepository, grades repository.SubmissionGradeRepository, logger zerolog.Logger) PeerAssignmentService {
	return &peerAssignmentService{
		tasks:       tasks,
		courses:     courses,
		submissions: submissions,
		grades:      grades,
		logger:      logger.With().Str("component", "peer_assignment").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/peergrade-api/internal/service/assignment"),
	}
}

// Request returns the grader's workload for the task, creating it on first call.
// Repeated calls return the same submissions and create nothing.
func (s *peerAssignmentService) Request(ctx context.Context, taskID uint, actor Actor) ([]dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.request_assignment", trace.WithAttributes(
		attribute.Int64("task.id", int64(taskID)),
		attribute.Int64("grader.id", int64(actor.ID)),
	))
	defer span.End()

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if err := s.ensureGrader(ctx, actor, task); err != nil {
		return nil, err
	}

	existing, err := s.grades.ListByGrader(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return workloadResponse(existing), nil
	}

	if !task.Grading.Status.AcceptsGrades() {
		return nil, ErrGradingClosed
	}

	candidates, err := s.submissions.ListReviewCandidates(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}

	selected := selectForReview(candidates, task.Grading.SubmissionsNumber)
	if len(selected) == 0 {
		return []dto.SubmissionResponse{}, nil
	}

	ids := make([]uint, 0, len(selected))
	for _, candidate := range selected {
		ids = append(ids, candidate.SubmissionID)
	}

	switch err := s.grades.Assign(ctx, taskID, actor.ID, ids); {
	case err == nil:
		observability.AssignmentsCreated().Add(float64(len(ids)))
		s.logger.Info().Uint("task_id", taskID).Uint("grader_id", actor.ID).Int("assigned", len(ids)).Msg("peer submissions assigned")
	case errors.Is(err, repository.ErrAssignmentExists):
		s.logger.Debug().Uint("task_id", taskID).Uint("grader_id", actor.ID).Msg("concurrent assignment detected, returning existing workload")
	default:
		span.RecordError(err)
		return nil, err
	}

	assigned, err := s.grades.ListByGrader(ctx, taskID, actor.ID)
	if err != nil {
		return nil, err
	}
	return workloadResponse(assigned), nil
}

func (s *peerAssignmentService) ensureGrader(ctx context.Context, actor Actor, task models.Task) error {
	if actor.Superuser {
		return nil
	}
	if !actor.IsStudent() {
		return ErrPermissionDenied
	}
	enrolled, err := s.courses.IsEnrolled(ctx, task.CourseID, actor.ID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotEnrolled
	}
	return nil
}

func workloadResponse(grades []models.SubmissionGrade) []dto.SubmissionResponse {
	responses := make([]dto.SubmissionResponse, 0, len(grades))
	for _, grade := range grades {
		submission := grade.Submission
		if submission.ID == 0 {
			submission = models.Submission{ID: grade.SubmissionID, TaskID: grade.TaskID}
		}
		responses = append(responses, dto.NewBlindSubmissionResponse(submission))
	}
	return responses
}

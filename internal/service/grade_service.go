package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
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

// GradeService validates and stores the scores graders give to their assigned submissions.
type GradeService interface {
	Submit(ctx context.Context, taskID uint, actor Actor, entries []dto.GradeEntry) error
	HasGraded(ctx context.Context, taskID uint, actor Actor) (dto.HasGradedResponse, error)
	ListSubmissionReviews(ctx context.Context, submissionID uint, actor Actor) ([]dto.SubmissionGradeResponse, error)
}

type gradeService struct {
	tasks       repository.TaskRepository
	submissions repository.SubmissionRepository
	grades      repository.SubmissionGradeRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewGradeService constructs the grading service.
func NewGradeService(tasks repository.TaskRepository, submissions repository.SubmissionRepository, grades repository.SubmissionGradeRepository, validate *validator.Validate, logger zerolog.Logger) GradeService {
	return &gradeService{
		tasks:       tasks,
		submissions: submissions,
		grades:      grades,
		validator:   validate,
		logger:      logger.With().Str("component", "grade_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/peergrade-api/internal/service/grading"),
	}
}

// Submit applies the whole batch or nothing.
func (s *gradeService) Submit(ctx context.Context, taskID uint, actor Actor, entries []dto.GradeEntry) (err error) {
	ctx, span := s.tracer.Start(ctx, "grading.submit", trace.WithAttributes(
		attribute.Int64("task.id", int64(taskID)),
		attribute.Int64("grader.id", int64(actor.ID)),
		attribute.Int("grades.count", len(entries)),
	))
	defer span.End()

	defer func() {
		outcome := "accepted"
		if err != nil {
			outcome = "rejected"
		}
		observability.GradeBatches().WithLabelValues(outcome).Inc()
	}()

	if err := s.validator.Struct(dto.GradeSubmissionRequest{Grades: entries}); err != nil {
		return err
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	if !task.Grading.Status.AcceptsGrades() {
		return ErrGradingClosed
	}

	batch := make(map[uint]int, len(entries))
	values := make([]int, 0, len(entries))
	for _, entry := range entries {
		if _, duplicate := batch[entry.SubmissionID]; duplicate {
			return ErrInvalidGradeDistribution
		}
		batch[entry.SubmissionID] = entry.Grade
		values = append(values, entry.Grade)
	}

	if err := validateGradeDistribution(values); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	assigned, err := s.grades.ListByGrader(ctx, taskID, actor.ID)
	if err != nil {
		return err
	}
	owned := make(map[uint]struct{}, len(assigned))
	for _, assignment := range assigned {
		owned[assignment.SubmissionID] = struct{}{}
	}
	for submissionID := range batch {
		if _, ok := owned[submissionID]; !ok {
			return ErrUnknownAssignment
		}
	}

	if err := s.grades.ApplyGrades(ctx, taskID, actor.ID, batch); err != nil {
		if errors.Is(err, repository.ErrAssignmentMismatch) {
			return ErrUnknownAssignment
		}
		span.RecordError(err)
		return err
	}

	s.logger.Info().Uint("task_id", taskID).Uint("grader_id", actor.ID).Int("grades", len(batch)).Msg("grades submitted")
	return nil
}

func (s *gradeService) HasGraded(ctx context.Context, taskID uint, actor Actor) (dto.HasGradedResponse, error) {
	graded, err := s.grades.HasGraded(ctx, taskID, actor.ID)
	if err != nil {
		return dto.HasGradedResponse{}, err
	}
	return dto.HasGradedResponse{HasGraded: graded}, nil
}

// ListSubmissionReviews returns completed reviews of a submission, best grade first.
// Course managers see them at any time; the author only once grading finished.
func (s *gradeService) ListSubmissionReviews(ctx context.Context, submissionID uint, actor Actor) ([]dto.SubmissionGradeResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}

	task, err := s.tasks.GetByID(ctx, submission.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	if !s.canSeeReviews(actor, task, submission) {
		return nil, ErrPermissionDenied
	}

	reviews, err := s.grades.ListDoneBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionGradeResponseSlice(reviews), nil
}

func (s *gradeService) canSeeReviews(actor Actor, task models.Task, submission models.Submission) bool {
	if canManage(actor, task.Course) {
		return true
	}
	return submission.AuthoredBy(actor.ID) && task.Grading.Status.IsTerminal()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/observability"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// GradingLifecycleService moves a task's grading through STANDBY, STARTED and FINISHED.
type GradingLifecycleService interface {
	Transition(ctx context.Context, taskID uint, next models.GradingStatus, actor Actor) (dto.TaskResponse, error)
	Reaggregate(ctx context.Context, taskID uint, actor Actor) (dto.AggregationResponse, error)
}

type gradingLifecycleService struct {
	tasks      repository.TaskRepository
	aggregator Aggregator
	results    ResultService
	events     GradingEventBus
	activity   ActivityRecorder
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewGradingLifecycleService constructs the lifecycle controller. events and activity may be nil.
func NewGradingLifecycleService(tasks repository.TaskRepository, aggregator Aggregator, results ResultService, events GradingEventBus, activity ActivityRecorder, logger zerolog.Logger) GradingLifecycleService {
	return &gradingLifecycleService{
		tasks:      tasks,
		aggregator: aggregator,
		results:    results,
		events:     events,
		activity:   activity,
		logger:     logger.With().Str("component", "grading_lifecycle").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/peergrade-api/internal/service/lifecycle"),
		now:        time.Now,
	}
}

// CheckSubmissionWindow rejects submissions once grading left STANDBY or the deadline passed.
func CheckSubmissionWindow(task models.Task, now time.Time) error {
	if !task.Grading.Status.AcceptsSubmissions() || task.IsPastDeadline(now) {
		return ErrSubmissionWindowClosed
	}
	return nil
}

func (s *gradingLifecycleService) Transition(ctx context.Context, taskID uint, next models.GradingStatus, actor Actor) (dto.TaskResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.transition", trace.WithAttributes(
		attribute.Int64("task.id", int64(taskID)),
		attribute.String("grading.next_status", next.String()),
	))
	defer span.End()

	if !next.Valid() {
		return dto.TaskResponse{}, ErrInvalidTransition
	}

	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	if !canManage(actor, task.Course) {
		return dto.TaskResponse{}, ErrPermissionDenied
	}

	current := task.Grading.Status
	if !current.CanTransitionTo(next) {
		return dto.TaskResponse{}, ErrInvalidTransition
	}

	if err := s.tasks.UpdateGradingStatus(ctx, taskID, current, next); err != nil {
		if errors.Is(err, repository.ErrStaleGradingStatus) {
			return dto.TaskResponse{}, ErrConcurrencyConflict
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "status update failed")
		return dto.TaskResponse{}, err
	}

	observability.StatusTransitions().WithLabelValues(next.String()).Inc()
	s.logger.Info().
		Uint("task_id", taskID).
		Str("from", current.String()).
		Str("to", next.String()).
		Uint("actor_id", actor.ID).
		Msg("grading status changed")

	recordTaskActivity(ctx, s.activity, s.logger, actor, "grading.transitioned", taskID, map[string]interface{}{
		"from": current.String(),
		"to":   next.String(),
	})
	s.publish(ctx, GradingStatusChanged, taskID, next, actor)

	if next == models.GradingStatusFinished {
		if _, err := s.finish(ctx, taskID, actor); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "aggregation failed")
			return dto.TaskResponse{}, err
		}
	}

	updated, err := s.loadTask(ctx, taskID)
	if err != nil {
		return dto.TaskResponse{}, err
	}
	return dto.NewTaskResponse(updated), nil
}

// Reaggregate recomputes every result of a finished task, recovering from a
// transition whose aggregation step failed part way.
func (s *gradingLifecycleService) Reaggregate(ctx context.Context, taskID uint, actor Actor) (dto.AggregationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "grading.reaggregate", trace.WithAttributes(
		attribute.Int64("task.id", int64(taskID)),
	))
	defer span.End()

	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return dto.AggregationResponse{}, err
	}
	if !canManage(actor, task.Course) {
		return dto.AggregationResponse{}, ErrPermissionDenied
	}
	if !task.Grading.Status.IsTerminal() {
		return dto.AggregationResponse{}, ErrInvalidTransition
	}

	count, err := s.finish(ctx, taskID, actor)
	if err != nil {
		span.RecordError(err)
		return dto.AggregationResponse{}, err
	}

	return dto.AggregationResponse{TaskID: taskID, Aggregated: count}, nil
}

func (s *gradingLifecycleService) finish(ctx context.Context, taskID uint, actor Actor) (int, error) {
	count, err := s.aggregator.AggregateTask(ctx, taskID)
	if err != nil {
		s.logger.Error().Err(err).Uint("task_id", taskID).Msg("aggregation failed after grading finished")
		return 0, fmt.Errorf("aggregate task %d: %w", taskID, err)
	}

	if s.results != nil {
		s.results.Invalidate(ctx, taskID)
	}
	recordTaskActivity(ctx, s.activity, s.logger, actor, "grading.aggregated", taskID, map[string]interface{}{
		"submissions": count,
	})
	s.publish(ctx, GradingResultsReady, taskID, models.GradingStatusFinished, actor)

	return count, nil
}

func (s *gradingLifecycleService) loadTask(ctx context.Context, taskID uint) (models.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

func (s *gradingLifecycleService) publish(ctx context.Context, eventType string, taskID uint, status models.GradingStatus, actor Actor) {
	if s.events == nil {
		return
	}
	event := dto.GradingEventResponse{
		Type:       eventType,
		TaskID:     taskID,
		Status:     status.String(),
		ActorID:    actor.ID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish grading event")
	}
}

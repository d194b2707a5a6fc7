package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/observability"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// Aggregator turns completed peer grades into final results.
type Aggregator interface {
	Aggregate(ctx context.Context, submissionID uint) (models.GradingResult, error)
	AggregateTask(ctx context.Context, taskID uint) (int, error)
}

type aggregator struct {
	submissions repository.SubmissionRepository
	results     repository.GradingResultRepository
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewAggregator constructs the score aggregator.
func NewAggregator(submissions repository.SubmissionRepository, results repository.GradingResultRepository, logger zerolog.Logger) Aggregator {
	return &aggregator{
		submissions: submissions,
		results:     results,
		logger:      logger.With().Str("component", "aggregator").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/peergrade-api/internal/service/aggregator"),
	}
}

// Aggregate recomputes the result of one submission. Running it again overwrites
// the previous total instead of adding a second row.
func (a *aggregator) Aggregate(ctx context.Context, submissionID uint) (models.GradingResult, error) {
	ctx, span := a.tracer.Start(ctx, "grading.aggregate", trace.WithAttributes(
		attribute.Int64("submission.id", int64(submissionID)),
	))
	defer span.End()

	submission, err := a.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.GradingResult{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return models.GradingResult{}, err
	}

	return a.aggregate(ctx, submission)
}

func (a *aggregator) AggregateTask(ctx context.Context, taskID uint) (int, error) {
	ctx, span := a.tracer.Start(ctx, "grading.aggregate_task", trace.WithAttributes(
		attribute.Int64("task.id", int64(taskID)),
	))
	defer span.End()

	submissions, err := a.submissions.List(ctx, repository.SubmissionFilter{TaskID: &taskID})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	for _, submission := range submissions {
		if _, err := a.aggregate(ctx, submission); err != nil {
			span.RecordError(err)
			return 0, err
		}
	}

	a.logger.Info().Uint("task_id", taskID).Int("submissions", len(submissions)).Msg("task results aggregated")
	return len(submissions), nil
}

func (a *aggregator) aggregate(ctx context.Context, submission models.Submission) (models.GradingResult, error) {
	result, err := a.results.Recompute(ctx, submission, totalScore)
	if err != nil {
		a.logger.Error().Err(err).Uint("submission_id", submission.ID).Msg("failed to aggregate submission")
		return models.GradingResult{}, err
	}

	observability.ResultsAggregated().Inc()
	return result, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// ResultService lists final scores of a task, highest first.
type ResultService interface {
	List(ctx context.Context, taskID uint, actor Actor) ([]dto.GradingResultResponse, error)
	Invalidate(ctx context.Context, taskID uint)
}

type resultService struct {
	tasks    repository.TaskRepository
	courses  repository.CourseRepository
	results  repository.GradingResultRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewResultService constructs the results service. The redis client may be nil.
func NewResultService(tasks repository.TaskRepository, courses repository.CourseRepository, results repository.GradingResultRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ResultService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &resultService{
		tasks:    tasks,
		courses:  courses,
		results:  results,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "result_service").Logger(),
	}
}

func resultsCacheKey(taskID uint) string {
	return fmt.Sprintf("results:task:%d", taskID)
}

func (s *resultService) List(ctx context.Context, taskID uint, actor Actor) ([]dto.GradingResultResponse, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	member, err := isMember(ctx, s.courses, actor, task.Course)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrPermissionDenied
	}

	cacheKey := resultsCacheKey(taskID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response []dto.GradingResultResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("task_id", taskID).Msg("results cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read results cache")
		}
	}

	results, err := s.results.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	response := dto.NewGradingResultResponseSlice(results)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store results cache")
			}
		}
	}

	return response, nil
}

func (s *resultService) Invalidate(ctx context.Context, taskID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, resultsCacheKey(taskID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("task_id", taskID).Msg("failed to invalidate results cache")
	}
}

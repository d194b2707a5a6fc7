package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// TaskService manages tasks together with their grading settings.
type TaskService interface {
	Create(ctx context.Context, actor Actor, payload dto.TaskCreateRequest) (dto.TaskResponse, error)
	Update(ctx context.Context, id uint, actor Actor, payload dto.TaskUpdateRequest) (dto.TaskResponse, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	Get(ctx context.Context, id uint, actor Actor) (dto.TaskResponse, error)
	List(ctx context.Context, actor Actor) ([]dto.TaskResponse, error)
	ListByCourse(ctx context.Context, courseID uint, actor Actor) ([]dto.TaskResponse, error)
}

type taskService struct {
	tasks     repository.TaskRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	strict    *bluemonday.Policy
	rich      *bluemonday.Policy
}

// NewTaskService constructs a TaskService. activity may be nil.
func NewTaskService(tasks repository.TaskRepository, courses repository.CourseRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) TaskService {
	return &taskService{
		tasks:     tasks,
		courses:   courses,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "task_service").Logger(),
		strict:    bluemonday.StrictPolicy(),
		rich:      bluemonday.UGCPolicy(),
	}
}

func (s *taskService) Create(ctx context.Context, actor Actor, payload dto.TaskCreateRequest) (dto.TaskResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TaskResponse{}, err
	}

	course, err := s.loadCourse(ctx, payload.CourseID)
	if err != nil {
		return dto.TaskResponse{}, err
	}
	if !canManage(actor, course) {
		return dto.TaskResponse{}, ErrPermissionDenied
	}

	deadline, err := parseDeadline(payload.Deadline)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	name := s.cleanName(payload.Name)
	if name == "" {
		return dto.TaskResponse{}, invalidInput("task name is empty after sanitization")
	}

	task := models.Task{
		CourseID: course.ID,
		Name:     name,
		Deadline: deadline,
		Grading: models.Grading{
			Instructions:      s.rich.Sanitize(payload.Instructions),
			SubmissionsNumber: payload.SubmissionsNumber,
			Status:            models.GradingStatusStandby,
		},
	}

	if err := s.tasks.Create(ctx, &task); err != nil {
		return dto.TaskResponse{}, err
	}

	created, err := s.tasks.GetByID(ctx, task.ID)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	recordTaskActivity(ctx, s.activity, s.logger, actor, "task.created", created.ID, map[string]interface{}{
		"course_id":          course.ID,
		"submissions_number": payload.SubmissionsNumber,
	})
	s.logger.Info().Uint("task_id", created.ID).Uint("course_id", course.ID).Msg("task created")

	return dto.NewTaskResponse(created), nil
}

func (s *taskService) Update(ctx context.Context, id uint, actor Actor, payload dto.TaskUpdateRequest) (dto.TaskResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TaskResponse{}, err
	}

	task, err := s.loadTask(ctx, id)
	if err != nil {
		return dto.TaskResponse{}, err
	}
	if !canManage(actor, task.Course) {
		return dto.TaskResponse{}, ErrPermissionDenied
	}

	if payload.SubmissionsNumber != task.Grading.SubmissionsNumber && task.Grading.Status != models.GradingStatusStandby {
		return dto.TaskResponse{}, ErrGradingLocked
	}

	deadline, err := parseDeadline(payload.Deadline)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	name := s.cleanName(payload.Name)
	if name == "" {
		return dto.TaskResponse{}, invalidInput("task name is empty after sanitization")
	}

	task.Name = name
	task.Deadline = deadline
	task.Grading.Instructions = s.rich.Sanitize(payload.Instructions)
	task.Grading.SubmissionsNumber = payload.SubmissionsNumber

	if err := s.tasks.Update(ctx, &task); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TaskResponse{}, ErrTaskNotFound
		}
		return dto.TaskResponse{}, err
	}

	updated, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	recordTaskActivity(ctx, s.activity, s.logger, actor, "task.updated", id, nil)
	return dto.NewTaskResponse(updated), nil
}

func (s *taskService) Delete(ctx context.Context, id uint, actor Actor) error {
	task, err := s.loadTask(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, task.Course) {
		return ErrPermissionDenied
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	s.logger.Info().Uint("task_id", id).Uint("actor_id", actor.ID).Msg("task deleted")
	return nil
}

func (s *taskService) Get(ctx context.Context, id uint, actor Actor) (dto.TaskResponse, error) {
	task, err := s.loadTask(ctx, id)
	if err != nil {
		return dto.TaskResponse{}, err
	}

	member, err := isMember(ctx, s.courses, actor, task.Course)
	if err != nil {
		return dto.TaskResponse{}, err
	}
	if !member {
		return dto.TaskResponse{}, ErrPermissionDenied
	}

	return dto.NewTaskResponse(task), nil
}

func (s *taskService) List(ctx context.Context, actor Actor) ([]dto.TaskResponse, error) {
	tasks, err := s.tasks.List(ctx, taskFilterFor(actor))
	if err != nil {
		return nil, err
	}
	return dto.NewTaskResponseSlice(tasks), nil
}

func (s *taskService) ListByCourse(ctx context.Context, courseID uint, actor Actor) ([]dto.TaskResponse, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	member, err := isMember(ctx, s.courses, actor, course)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrPermissionDenied
	}

	tasks, err := s.tasks.List(ctx, repository.TaskFilter{CourseID: &courseID})
	if err != nil {
		return nil, err
	}
	return dto.NewTaskResponseSlice(tasks), nil
}

func (s *taskService) loadTask(ctx context.Context, id uint) (models.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrTaskNotFound
		}
		return models.Task{}, err
	}
	return task, nil
}

func (s *taskService) loadCourse(ctx context.Context, id uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}
	return course, nil
}

func (s *taskService) cleanName(name string) string {
	return strings.TrimSpace(s.strict.Sanitize(name))
}

func parseDeadline(value string) (time.Time, error) {
	deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, invalidInput("deadline must be an RFC3339 timestamp")
	}
	return deadline.UTC(), nil
}

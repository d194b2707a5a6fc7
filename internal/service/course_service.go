package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// CourseService manages courses and their enrollments.
type CourseService interface {
	Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Get(ctx context.Context, id uint, actor Actor) (dto.CourseResponse, error)
	List(ctx context.Context, actor Actor) ([]dto.CourseResponse, error)
	Update(ctx context.Context, id uint, actor Actor, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	Enroll(ctx context.Context, id uint, actor Actor, payload dto.EnrollStudentRequest) error
	ListStudents(ctx context.Context, id uint, actor Actor) ([]dto.UserResponse, error)
}

type courseService struct {
	courses   repository.CourseRepository
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
	sanitizer *bluemonday.Policy
}

// NewCourseService constructs a CourseService.
func NewCourseService(courses repository.CourseRepository, users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courses,
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "course_service").Logger(),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (s *courseService) Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	teacherID := actor.ID
	switch {
	case actor.Superuser && payload.TeacherID != 0:
		teacher, err := s.loadUser(ctx, payload.TeacherID)
		if err != nil {
			return dto.CourseResponse{}, err
		}
		if !teacher.IsTeacher() {
			return dto.CourseResponse{}, invalidInput("teacher_id must reference a teacher")
		}
		teacherID = teacher.ID
	case actor.Superuser, actor.IsTeacher():
	default:
		return dto.CourseResponse{}, ErrPermissionDenied
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(payload.Name))
	if name == "" {
		return dto.CourseResponse{}, invalidInput("course name is empty after sanitization")
	}

	course := models.Course{Name: name, TeacherID: teacherID}
	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	created, err := s.courses.GetByID(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	s.logger.Info().Uint("course_id", created.ID).Uint("teacher_id", teacherID).Msg("course created")
	return dto.NewCourseResponse(created), nil
}

func (s *courseService) Get(ctx context.Context, id uint, actor Actor) (dto.CourseResponse, error) {
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	member, err := isMember(ctx, s.courses, actor, course)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if !member {
		return dto.CourseResponse{}, ErrPermissionDenied
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) List(ctx context.Context, actor Actor) ([]dto.CourseResponse, error) {
	courses, err := s.courses.List(ctx, courseFilterFor(actor))
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Update(ctx context.Context, id uint, actor Actor, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	if !canManage(actor, course) {
		return dto.CourseResponse{}, ErrPermissionDenied
	}

	name := strings.TrimSpace(s.sanitizer.Sanitize(payload.Name))
	if name == "" {
		return dto.CourseResponse{}, invalidInput("course name is empty after sanitization")
	}
	course.Name = name

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, id uint, actor Actor) error {
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, course) {
		return ErrPermissionDenied
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	s.logger.Info().Uint("course_id", id).Msg("course deleted")
	return nil
}

// Enroll adds a student to the course. Enrolling twice is a no-op.
func (s *courseService) Enroll(ctx context.Context, id uint, actor Actor, payload dto.EnrollStudentRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, course) {
		return ErrPermissionDenied
	}

	student, err := s.loadUser(ctx, payload.StudentID)
	if err != nil {
		return err
	}
	if !student.IsStudent() {
		return invalidInput("only students can be enrolled")
	}

	enrolled, err := s.courses.IsEnrolled(ctx, course.ID, student.ID)
	if err != nil {
		return err
	}
	if enrolled {
		return nil
	}

	if err := s.courses.Enroll(ctx, course.ID, student.ID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	s.logger.Info().Uint("course_id", course.ID).Uint("student_id", student.ID).Msg("student enrolled")
	return nil
}

func (s *courseService) ListStudents(ctx context.Context, id uint, actor Actor) ([]dto.UserResponse, error) {
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, course) {
		return nil, ErrPermissionDenied
	}

	students, err := s.courses.ListStudents(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponseSlice(students), nil
}

func (s *courseService) loadCourse(ctx context.Context, id uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}
	return course, nil
}

func (s *courseService) loadUser(ctx context.Context, id uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

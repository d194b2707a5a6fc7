package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

const pdfMIME = "application/pdf"

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// SubmissionService admits student work and answers submission queries.
type SubmissionService interface {
	Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint, actor Actor) (dto.SubmissionResponse, error)
	ListForTask(ctx context.Context, taskID uint, actor Actor) ([]dto.SubmissionResponse, error)
	GetOwn(ctx context.Context, taskID uint, actor Actor) (dto.SubmissionResponse, error)
	HasSubmitted(ctx context.Context, taskID uint, actor Actor) (dto.SubmittedResponse, error)
	ListMine(ctx context.Context, actor Actor) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	tasks       repository.TaskRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	uploader    FileUploader
	maxSize     int64
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, tasks repository.TaskRepository, courses repository.CourseRepository, validate *validator.Validate, uploader FileUploader, maxSizeMB int, logger zerolog.Logger) SubmissionService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &submissionService{
		submissions: submissions,
		tasks:       tasks,
		courses:     courses,
		validator:   validate,
		uploader:    uploader,
		maxSize:     int64(maxSizeMB) * 1024 * 1024,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Create(ctx context.Context, actor Actor, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if file == nil {
		return dto.SubmissionResponse{}, invalidInput("submission file is required")
	}
	if file.Size > s.maxSize {
		return dto.SubmissionResponse{}, ErrFileTooLarge
	}

	task, err := s.tasks.GetByID(ctx, payload.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrTaskNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if !actor.IsStudent() {
		return dto.SubmissionResponse{}, ErrPermissionDenied
	}
	enrolled, err := s.courses.IsEnrolled(ctx, task.CourseID, actor.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !enrolled {
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	if err := CheckSubmissionWindow(task, s.now()); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.submissions.GetByTaskAndStudent(ctx, task.ID, actor.ID); err == nil {
		return dto.SubmissionResponse{}, ErrAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	if err := detectPDF(file); err != nil {
		return dto.SubmissionResponse{}, err
	}

	reader, err := file.Open()
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	objectName := fmt.Sprintf("tasks/%d/%s.pdf", task.ID, uuid.NewString())
	fileURL, err := s.uploader.Upload(ctx, objectName, reader)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("failed to upload file: %w", err)
	}

	submission := models.Submission{
		TaskID:    task.ID,
		StudentID: actor.ID,
		FileURL:   fileURL,
	}
	if err := s.submissions.Create(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, ErrAlreadySubmitted
		}
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", created.ID).Uint("task_id", task.ID).Msg("submission created")

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) Get(ctx context.Context, id uint, actor Actor) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.AuthoredBy(actor.ID) {
		return dto.NewSubmissionResponse(submission), nil
	}

	task, err := s.tasks.GetByID(ctx, submission.TaskID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !canManage(actor, task.Course) {
		return dto.SubmissionResponse{}, ErrPermissionDenied
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ListForTask(ctx context.Context, taskID uint, actor Actor) ([]dto.SubmissionResponse, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	if !canManage(actor, task.Course) {
		return nil, ErrPermissionDenied
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{TaskID: &taskID})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) GetOwn(ctx context.Context, taskID uint, actor Actor) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByTaskAndStudent(ctx, taskID, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) HasSubmitted(ctx context.Context, taskID uint, actor Actor) (dto.SubmittedResponse, error) {
	_, err := s.submissions.GetByTaskAndStudent(ctx, taskID, actor.ID)
	switch {
	case err == nil:
		return dto.SubmittedResponse{HasSubmitted: true}, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return dto.SubmittedResponse{HasSubmitted: false}, nil
	default:
		return dto.SubmittedResponse{}, err
	}
}

func (s *submissionService) ListMine(ctx context.Context, actor Actor) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &actor.ID})
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func detectPDF(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}
	if !mime.Is(pdfMIME) {
		return ErrUnsupportedFileType
	}
	return nil
}

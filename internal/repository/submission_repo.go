package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// SubmissionFilter allows narrowing submission queries.
type SubmissionFilter struct {
	TaskID    *uint
	StudentID *uint
}

// ReviewCandidate is a peer submission together with the number of graders already assigned to it.
type ReviewCandidate struct {
	SubmissionID uint
	StudentID    uint
	ReviewCount  int64
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByTaskAndStudent(ctx context.Context, taskID, studentID uint) (models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	ListReviewCandidates(ctx context.Context, taskID, graderID uint) ([]ReviewCandidate, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Task").
		Preload("Task.Grading").
		Preload("Student")
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.baseQuery(ctx)

	if filter.TaskID != nil {
		query = query.Where("task_id = ?", *filter.TaskID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Order("id DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByTaskAndStudent(ctx context.Context, taskID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("task_id = ?", taskID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit("Task", "Student").Create(submission).Error
}

// ListReviewCandidates returns every submission of the task not authored by the grader,
// with its current reviewer count, ordered by id.
func (r *submissionRepository) ListReviewCandidates(ctx context.Context, taskID, graderID uint) ([]ReviewCandidate, error) {
	var candidates []ReviewCandidate
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("submissions.id AS submission_id, submissions.student_id AS student_id, COUNT(submission_grades.id) AS review_count").
		Joins("LEFT JOIN submission_grades ON submission_grades.submission_id = submissions.id").
		Where("submissions.task_id = ?", taskID).
		Where("submissions.student_id <> ?", graderID).
		Group("submissions.id, submissions.student_id").
		Order("submissions.id ASC").
		Scan(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

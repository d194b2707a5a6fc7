package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// SubmissionGradeRepository persists peer assignments and the grades given through them.
type SubmissionGradeRepository interface {
	ListByGrader(ctx context.Context, taskID, graderID uint) ([]models.SubmissionGrade, error)
	ListDoneBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionGrade, error)
	HasGraded(ctx context.Context, taskID, graderID uint) (bool, error)
	Assign(ctx context.Context, taskID, graderID uint, submissionIDs []uint) error
	ApplyGrades(ctx context.Context, taskID, graderID uint, grades map[uint]int) error
}

type submissionGradeRepository struct {
	db *gorm.DB
}

// NewSubmissionGradeRepository instantiates the repository.
func NewSubmissionGradeRepository(db *gorm.DB) SubmissionGradeRepository {
	return &submissionGradeRepository{db: db}
}

func (r *submissionGradeRepository) ListByGrader(ctx context.Context, taskID, graderID uint) ([]models.SubmissionGrade, error) {
	var grades []models.SubmissionGrade
	err := r.db.WithContext(ctx).
		Preload("Submission").
		Preload("Submission.Student").
		Preload("Submission.Task").
		Where("task_id = ? AND grader_id = ?", taskID, graderID).
		Order("submission_id ASC").
		Find(&grades).Error
	if err != nil {
		return nil, err
	}
	return grades, nil
}

func (r *submissionGradeRepository) ListDoneBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionGrade, error) {
	var grades []models.SubmissionGrade
	err := r.db.WithContext(ctx).
		Preload("Grader").
		Where("submission_id = ? AND status = ?", submissionID, models.SubmissionGradeDone).
		Order("grade DESC").
		Order("id ASC").
		Find(&grades).Error
	if err != nil {
		return nil, err
	}
	return grades, nil
}

func (r *submissionGradeRepository) HasGraded(ctx context.Context, taskID, graderID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SubmissionGrade{}).
		Where("task_id = ? AND grader_id = ? AND status = ?", taskID, graderID, models.SubmissionGradeDone).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Assign creates the grader's workload for a task. The grader row is locked for the
// duration of the transaction so concurrent first requests serialise; the loser observes
// existing rows and gets ErrAssignmentExists. A unique violation on (grader, submission)
// is reported the same way.
func (r *submissionGradeRepository) Assign(ctx context.Context, taskID, graderID uint, submissionIDs []uint) error {
	if len(submissionIDs) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var grader models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&grader, graderID).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.SubmissionGrade{}).
			Where("task_id = ? AND grader_id = ?", taskID, graderID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAssignmentExists
		}

		rows := make([]models.SubmissionGrade, 0, len(submissionIDs))
		for _, submissionID := range submissionIDs {
			rows = append(rows, models.SubmissionGrade{
				TaskID:       taskID,
				GraderID:     graderID,
				SubmissionID: submissionID,
				Status:       models.SubmissionGradeInProgress,
			})
		}

		return tx.Omit(clause.Associations).Create(&rows).Error
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAssignmentExists
	}
	return err
}

// ApplyGrades scores every listed assignment of the grader or none of them.
func (r *submissionGradeRepository) ApplyGrades(ctx context.Context, taskID, graderID uint, grades map[uint]int) error {
	if len(grades) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for submissionID, grade := range grades {
			result := tx.Model(&models.SubmissionGrade{}).
				Where("task_id = ? AND grader_id = ? AND submission_id = ?", taskID, graderID, submissionID).
				Updates(map[string]interface{}{
					"grade":  grade,
					"status": models.SubmissionGradeDone,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrAssignmentMismatch
			}
		}
		return nil
	})
}

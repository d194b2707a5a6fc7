package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// ScoreFunc reduces the completed grades of a submission to its total score.
type ScoreFunc func(done []models.SubmissionGrade) int

// GradingResultRepository stores final peer-reviewed scores.
type GradingResultRepository interface {
	ListByTask(ctx context.Context, taskID uint) ([]models.GradingResult, error)
	Recompute(ctx context.Context, submission models.Submission, score ScoreFunc) (models.GradingResult, error)
}

type gradingResultRepository struct {
	db *gorm.DB
}

// NewGradingResultRepository instantiates the repository.
func NewGradingResultRepository(db *gorm.DB) GradingResultRepository {
	return &gradingResultRepository{db: db}
}

func (r *gradingResultRepository) ListByTask(ctx context.Context, taskID uint) ([]models.GradingResult, error) {
	var results []models.GradingResult
	err := r.db.WithContext(ctx).
		Preload("Submission").
		Preload("Submission.Student").
		Where("task_id = ?", taskID).
		Order("total_score DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Recompute reads the DONE grades and upserts the result in one transaction,
// so the stored total always matches the grades it was computed from.
func (r *gradingResultRepository) Recompute(ctx context.Context, submission models.Submission, score ScoreFunc) (models.GradingResult, error) {
	var stored models.GradingResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var done []models.SubmissionGrade
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("submission_id = ? AND status = ?", submission.ID, models.SubmissionGradeDone).
			Find(&done).Error; err != nil {
			return err
		}

		result := models.GradingResult{
			SubmissionID: submission.ID,
			TaskID:       submission.TaskID,
			TotalScore:   score(done),
		}

		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_score", "updated_at"}),
		}).Create(&result).Error; err != nil {
			return err
		}

		return tx.Where("submission_id = ?", submission.ID).First(&stored).Error
	})
	if err != nil {
		return models.GradingResult{}, err
	}

	return stored, nil
}

package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// TaskFilter narrows task listings.
type TaskFilter struct {
	CourseID  *uint
	TeacherID *uint
	StudentID *uint
}

// TaskRepository defines persistence operations for tasks and their grading settings.
type TaskRepository interface {
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	GetByID(ctx context.Context, id uint) (models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uint) error
	UpdateGradingStatus(ctx context.Context, taskID uint, from, to models.GradingStatus) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository instantiates the task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Preload("Grading").
		Preload("Course").
		Preload("Course.Teacher")
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	query := r.baseQuery(ctx)

	if filter.CourseID != nil {
		query = query.Where("tasks.course_id = ?", *filter.CourseID)
	}

	if filter.TeacherID != nil {
		query = query.Where("tasks.course_id IN (?)",
			r.db.Model(&models.Course{}).Select("id").Where("teacher_id = ?", *filter.TeacherID))
	}

	if filter.StudentID != nil {
		query = query.Where("tasks.course_id IN (?)",
			r.db.Table(enrollmentTable).Select("course_id").Where("user_id = ?", *filter.StudentID))
	}

	var tasks []models.Task
	if err := query.Order("tasks.deadline ASC").Order("tasks.id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (models.Task, error) {
	var task models.Task
	if err := r.baseQuery(ctx).First(&task, id).Error; err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// Create stores the task and its grading record atomically.
func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		grading := task.Grading
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}

		grading.TaskID = task.ID
		if grading.Status == "" {
			grading.Status = models.GradingStatusStandby
		}
		if err := tx.Create(&grading).Error; err != nil {
			return err
		}

		task.Grading = grading
		return nil
	})
}

// Update persists the task identity fields and grading settings. Status is never touched here.
func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).Where("id = ?", task.ID).Updates(map[string]interface{}{
			"name":     task.Name,
			"deadline": task.Deadline,
		})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&models.Grading{}).Where("task_id = ?", task.ID).Updates(map[string]interface{}{
			"instructions":       task.Grading.Instructions,
			"submissions_number": task.Grading.SubmissionsNumber,
		}).Error
	})
}

// Delete removes the task together with everything it owns.
func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.GradingResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.SubmissionGrade{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.Grading{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Task{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// UpdateGradingStatus moves the status only if it still equals from.
func (r *taskRepository) UpdateGradingStatus(ctx context.Context, taskID uint, from, to models.GradingStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Grading{}).
		Where("task_id = ? AND status = ?", taskID, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleGradingStatus
	}
	return nil
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/peergrade-api/internal/models"
)

const enrollmentTable = "course_enrollments"

// CourseFilter narrows course listings.
type CourseFilter struct {
	TeacherID *uint
	StudentID *uint
}

// CourseRepository defines persistence operations for courses and enrollments.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	Enroll(ctx context.Context, courseID, studentID uint) error
	IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error)
	ListStudents(ctx context.Context, courseID uint) ([]models.User, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates the course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{}).Preload("Teacher")

	if filter.TeacherID != nil {
		query = query.Where("courses.teacher_id = ?", *filter.TeacherID)
	}

	if filter.StudentID != nil {
		query = query.
			Joins("JOIN "+enrollmentTable+" ON "+enrollmentTable+".course_id = courses.id").
			Where(enrollmentTable+".user_id = ?", *filter.StudentID)
	}

	var courses []models.Course
	if err := query.Order("courses.name ASC").Find(&courses).Error; err != nil {
		return nil, err
	}

	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Teacher").First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit("Teacher", "Students").Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ?", course.ID).
		Updates(map[string]interface{}{"name": course.Name}).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM "+enrollmentTable+" WHERE course_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Course{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *courseRepository) Enroll(ctx context.Context, courseID, studentID uint) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO "+enrollmentTable+" (course_id, user_id) VALUES (?, ?)",
		courseID, studentID,
	).Error
}

func (r *courseRepository) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(enrollmentTable).
		Where("course_id = ? AND user_id = ?", courseID, studentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *courseRepository) ListStudents(ctx context.Context, courseID uint) ([]models.User, error) {
	var students []models.User
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN "+enrollmentTable+" ON "+enrollmentTable+".user_id = users.id").
		Where(enrollmentTable+".course_id = ?", courseID).
		Order("users.last_name ASC, users.first_name ASC, users.id ASC").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

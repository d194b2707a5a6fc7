package models

import "time"

// Course groups tasks under a single owning teacher.
type Course struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	TeacherID uint      `gorm:"not null;index" json:"teacher_id"`
	Teacher   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"teacher"`
	Students  []User    `gorm:"many2many:course_enrollments;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnedBy reports whether the given user owns the course.
func (c Course) OwnedBy(userID uint) bool {
	return userID != 0 && c.TeacherID == userID
}

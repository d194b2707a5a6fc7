package models

import "time"

// Task is a unit of work students submit against. It owns its Grading record.
type Task struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Deadline  time.Time `gorm:"not null" json:"deadline"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Course    Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
	Grading   Grading   `gorm:"foreignKey:TaskID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"grading"`
}

// IsPastDeadline returns true when the submission deadline has already passed.
func (t Task) IsPastDeadline(reference time.Time) bool {
	return reference.After(t.Deadline)
}

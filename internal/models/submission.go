package models

import "time"

// Submission is a student's uploaded artifact for a task.
type Submission struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskID    uint      `gorm:"not null;uniqueIndex:idx_submission_task_student" json:"task_id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_submission_task_student;index" json:"student_id"`
	FileURL   string    `gorm:"size:512" json:"file_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Task      Task      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"task"`
	Student   User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// AuthoredBy reports whether the given student owns the submission.
func (s Submission) AuthoredBy(studentID uint) bool {
	return s.StudentID == studentID
}

package models

import "time"

// GradingResult is the final peer-reviewed score of a submission.
type GradingResult struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SubmissionID uint       `gorm:"not null;uniqueIndex" json:"submission_id"`
	TaskID       uint       `gorm:"not null;index" json:"task_id"`
	TotalScore   int        `gorm:"not null" json:"total_score"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Submission   Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission"`
}

package models

import "time"

// SubmissionGradeStatus tracks whether a grader has scored an assigned submission.
type SubmissionGradeStatus string

const (
	// SubmissionGradeInProgress marks an assignment awaiting a score.
	SubmissionGradeInProgress SubmissionGradeStatus = "IN_PROGRESS"
	// SubmissionGradeDone marks an assignment whose score has been accepted.
	SubmissionGradeDone SubmissionGradeStatus = "DONE"
)

// SubmissionGrade links a grader to a peer submission they must score.
// (grader_id, submission_id) is unique.
type SubmissionGrade struct {
	ID           uint                  `gorm:"primaryKey" json:"id"`
	TaskID       uint                  `gorm:"not null;index:idx_submission_grade_task_grader" json:"task_id"`
	GraderID     uint                  `gorm:"not null;uniqueIndex:idx_submission_grade_grader_submission;index:idx_submission_grade_task_grader" json:"grader_id"`
	SubmissionID uint                  `gorm:"not null;uniqueIndex:idx_submission_grade_grader_submission;index" json:"submission_id"`
	Status       SubmissionGradeStatus `gorm:"size:16;not null;default:IN_PROGRESS" json:"status"`
	Grade        *int                  `json:"grade"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Grader       User                  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"grader"`
	Submission   Submission            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission"`
}

// IsDone reports whether the grade has been submitted.
func (g SubmissionGrade) IsDone() bool {
	return g.Status == SubmissionGradeDone
}

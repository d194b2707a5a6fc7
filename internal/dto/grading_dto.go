package dto

import (
	"time"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// GradeEntry is one score given by a grader to an assigned submission.
// Grade range is enforced by the distribution rule, not by tags.
type GradeEntry struct {
	SubmissionID uint `json:"submission_id" validate:"required,gt=0"`
	Grade        int  `json:"grade"`
}

// GradeSubmissionRequest wraps a grader's batch of scores.
type GradeSubmissionRequest struct {
	Grades []GradeEntry `json:"grades" validate:"dive"`
}

// SubmissionGradeResponse exposes a completed peer review.
type SubmissionGradeResponse struct {
	ID           uint         `json:"id"`
	SubmissionID uint         `json:"submission_id"`
	Grader       UserResponse `json:"grader"`
	Grade        *int         `json:"grade"`
	Status       string       `json:"status"`
}

// NewSubmissionGradeResponse converts a model into a DTO.
func NewSubmissionGradeResponse(model models.SubmissionGrade) SubmissionGradeResponse {
	response := SubmissionGradeResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		Grade:        model.Grade,
		Status:       string(model.Status),
	}
	if model.Grader.ID != 0 {
		response.Grader = NewUserResponse(model.Grader)
	} else {
		response.Grader = UserResponse{ID: model.GraderID}
	}
	return response
}

// NewSubmissionGradeResponseSlice converts models into DTOs.
func NewSubmissionGradeResponseSlice(grades []models.SubmissionGrade) []SubmissionGradeResponse {
	responses := make([]SubmissionGradeResponse, 0, len(grades))
	for _, grade := range grades {
		responses = append(responses, NewSubmissionGradeResponse(grade))
	}
	return responses
}

// GradingResultResponse exposes the final score of a submission.
type GradingResultResponse struct {
	ID         uint               `json:"id"`
	TotalScore int                `json:"total_score"`
	Submission SubmissionResponse `json:"submission"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewGradingResultResponse converts a model into a DTO.
func NewGradingResultResponse(model models.GradingResult) GradingResultResponse {
	submission := model.Submission
	if submission.ID == 0 {
		submission = models.Submission{ID: model.SubmissionID, TaskID: model.TaskID}
	}
	return GradingResultResponse{
		ID:         model.ID,
		TotalScore: model.TotalScore,
		Submission: NewSubmissionResponse(submission),
		CreatedAt:  model.CreatedAt,
	}
}

// NewGradingResultResponseSlice converts models into DTOs, preserving order.
func NewGradingResultResponseSlice(results []models.GradingResult) []GradingResultResponse {
	responses := make([]GradingResultResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, NewGradingResultResponse(result))
	}
	return responses
}

// HasGradedResponse reports whether the caller already graded for a task.
type HasGradedResponse struct {
	HasGraded bool `json:"has_graded"`
}

// AggregationResponse summarises a results recomputation.
type AggregationResponse struct {
	TaskID     uint `json:"task_id"`
	Aggregated int  `json:"aggregated"`
}

// GradingEventResponse is pushed to grading status feed subscribers.
type GradingEventResponse struct {
	Type       string    `json:"type"`
	TaskID     uint      `json:"task_id"`
	Status     string    `json:"status"`
	ActorID    uint      `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

package dto

import (
	"time"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// SubmissionCreateRequest describes the multipart payload for submission upload.
type SubmissionCreateRequest struct {
	TaskID uint `form:"task_id" validate:"required,gt=0"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID        uint          `json:"id"`
	TaskID    uint          `json:"task_id"`
	FileURL   string        `json:"file_url"`
	Student   *UserResponse `json:"student,omitempty"`
	Task      *TaskLite     `json:"task,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:        model.ID,
		TaskID:    model.TaskID,
		FileURL:   model.FileURL,
		CreatedAt: model.CreatedAt,
	}

	if model.Student.ID != 0 {
		student := NewUserResponse(model.Student)
		response.Student = &student
	} else if model.StudentID != 0 {
		response.Student = &UserResponse{ID: model.StudentID}
	}

	if model.Task.ID != 0 {
		response.Task = &TaskLite{
			ID:            model.Task.ID,
			Name:          model.Task.Name,
			Deadline:      model.Task.Deadline,
			GradingStatus: model.Task.Grading.Status.String(),
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

// NewBlindSubmissionResponse hides the author so peers review anonymously.
func NewBlindSubmissionResponse(model models.Submission) SubmissionResponse {
	response := NewSubmissionResponse(model)
	response.Student = nil
	return response
}

// SubmittedResponse reports whether the caller already submitted for a task.
type SubmittedResponse struct {
	HasSubmitted bool `json:"has_submitted"`
}

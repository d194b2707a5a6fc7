package dto

import (
	"time"

	"github.com/noah-isme/peergrade-api/internal/models"
)

// TaskCreateRequest describes the payload for creating a task with its grading settings.
type TaskCreateRequest struct {
	Name              string `json:"name" validate:"required,min=1,max=255"`
	CourseID          uint   `json:"course_id" validate:"required,gt=0"`
	Instructions      string `json:"instructions" validate:"max=20000"`
	SubmissionsNumber int    `json:"submissions_number" validate:"required,gte=1"`
	Deadline          string `json:"deadline" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// TaskUpdateRequest describes the payload for updating a task.
type TaskUpdateRequest struct {
	Name              string `json:"name" validate:"required,min=1,max=255"`
	Instructions      string `json:"instructions" validate:"max=20000"`
	SubmissionsNumber int    `json:"submissions_number" validate:"required,gte=1"`
	Deadline          string `json:"deadline" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// GradingStatusUpdateRequest moves a task's grading to a new phase.
type GradingStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=STANDBY STARTED FINISHED"`
}

// GradingResponse describes the grading settings of a task.
type GradingResponse struct {
	Status            string `json:"status"`
	Instructions      string `json:"instructions"`
	SubmissionsNumber int    `json:"submissions_number"`
}

// TaskResponse is the serialized representation of a task.
type TaskResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Grading   GradingResponse `json:"grading"`
	Course    CourseResponse  `json:"course"`
	CreatedAt time.Time       `json:"created_at"`
	Deadline  time.Time       `json:"deadline"`
}

// TaskLite summarizes a task inside submission payloads.
type TaskLite struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Deadline      time.Time `json:"deadline"`
	GradingStatus string    `json:"grading_status"`
}

// NewTaskResponse converts a model into a DTO.
func NewTaskResponse(model models.Task) TaskResponse {
	return TaskResponse{
		ID:   model.ID,
		Name: model.Name,
		Grading: GradingResponse{
			Status:            model.Grading.Status.String(),
			Instructions:      model.Grading.Instructions,
			SubmissionsNumber: model.Grading.SubmissionsNumber,
		},
		Course:    NewCourseResponse(model.Course),
		CreatedAt: model.CreatedAt,
		Deadline:  model.Deadline,
	}
}

// NewTaskResponseSlice converts task models into DTOs.
func NewTaskResponseSlice(tasks []models.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		responses = append(responses, NewTaskResponse(task))
	}
	return responses
}

package dto

import "github.com/noah-isme/peergrade-api/internal/models"

// CourseCreateRequest describes the payload for creating a course.
// TeacherID is only honoured for superusers; teachers always own what they create.
type CourseCreateRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=100"`
	TeacherID uint   `json:"teacher_id" validate:"omitempty,gt=0"`
}

// CourseUpdateRequest describes the payload for renaming a course.
type CourseUpdateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// EnrollStudentRequest enrolls a student into a course.
type EnrollStudentRequest struct {
	StudentID uint `json:"student_id" validate:"required,gt=0"`
}

// CourseResponse is the serialized representation of a course.
type CourseResponse struct {
	ID      uint          `json:"id"`
	Name    string        `json:"name"`
	Teacher *UserResponse `json:"teacher,omitempty"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	response := CourseResponse{
		ID:   model.ID,
		Name: model.Name,
	}
	if model.Teacher.ID != 0 {
		teacher := NewUserResponse(model.Teacher)
		response.Teacher = &teacher
	}
	return response
}

// NewCourseResponseSlice converts course models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}
	return responses
}

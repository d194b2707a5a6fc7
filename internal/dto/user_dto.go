package dto

import "github.com/noah-isme/peergrade-api/internal/models"

// UserResponse exposes public profile data of a user.
type UserResponse struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsStudent   bool   `json:"is_student"`
	IsTeacher   bool   `json:"is_teacher"`
	IsSuperuser bool   `json:"is_superuser"`
}

// NewUserResponse converts a User model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:          model.ID,
		Username:    model.Username,
		FirstName:   model.FirstName,
		LastName:    model.LastName,
		IsStudent:   model.IsStudent(),
		IsTeacher:   model.IsTeacher(),
		IsSuperuser: model.IsSuperuser,
	}
}

// NewUserResponseSlice converts users into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}
	return responses
}

// SeedUser describes a user provisioned through the seeding endpoint.
type SeedUser struct {
	Username    string `json:"username" validate:"required,min=3,max=150"`
	Email       string `json:"email" validate:"omitempty,email"`
	FirstName   string `json:"first_name" validate:"omitempty,max=150"`
	LastName    string `json:"last_name" validate:"omitempty,max=150"`
	Role        string `json:"role" validate:"required,oneof=student teacher admin"`
	IsSuperuser bool   `json:"is_superuser"`
}

// SeedUsersRequest is the payload accepted by the seeding endpoint.
type SeedUsersRequest struct {
	Users []SeedUser `json:"users" validate:"required,min=1,dive"`
}

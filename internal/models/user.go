package models

import (
	"strings"
	"time"
)

const (
	// RoleStudent identifies learners who submit work and review peers.
	RoleStudent = "student"
	// RoleTeacher identifies course owners.
	RoleTeacher = "teacher"
	// RoleAdmin identifies superusers.
	RoleAdmin = "admin"
)

// User is a person known to the grading service. Credentials live in the identity provider.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"size:255" json:"email"`
	FirstName   string    `gorm:"size:150" json:"first_name"`
	LastName    string    `gorm:"size:150" json:"last_name"`
	Role        string    `gorm:"size:32;not null;default:student" json:"role"`
	IsSuperuser bool      `gorm:"not null;default:false" json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsStudent reports whether the user may submit and review work.
func (u User) IsStudent() bool {
	return strings.EqualFold(u.Role, RoleStudent)
}

// IsTeacher reports whether the user may own courses.
func (u User) IsTeacher() bool {
	return strings.EqualFold(u.Role, RoleTeacher)
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

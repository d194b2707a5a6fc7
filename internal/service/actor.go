package service

import (
	"context"
	"strings"

	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// Actor is the authenticated caller of a core operation.
type Actor struct {
	ID        uint
	Role      string
	Superuser bool
}

// IsTeacher reports whether the actor acts as a teacher.
func (a Actor) IsTeacher() bool {
	return strings.EqualFold(a.Role, models.RoleTeacher)
}

// IsStudent reports whether the actor acts as a student.
func (a Actor) IsStudent() bool {
	return strings.EqualFold(a.Role, models.RoleStudent)
}

// canManage reports whether the actor may mutate the course and its tasks.
func canManage(actor Actor, course models.Course) bool {
	if actor.Superuser {
		return true
	}
	return actor.IsTeacher() && course.OwnedBy(actor.ID)
}

// isMember reports whether the actor may read the course: owner, enrolled student or superuser.
func isMember(ctx context.Context, courses repository.CourseRepository, actor Actor, course models.Course) (bool, error) {
	if canManage(actor, course) {
		return true, nil
	}
	if !actor.IsStudent() {
		return false, nil
	}
	return courses.IsEnrolled(ctx, course.ID, actor.ID)
}

func taskFilterFor(actor Actor) repository.TaskFilter {
	switch {
	case actor.Superuser:
		return repository.TaskFilter{}
	case actor.IsTeacher():
		return repository.TaskFilter{TeacherID: &actor.ID}
	default:
		return repository.TaskFilter{StudentID: &actor.ID}
	}
}

func courseFilterFor(actor Actor) repository.CourseFilter {
	switch {
	case actor.Superuser:
		return repository.CourseFilter{}
	case actor.IsTeacher():
		return repository.CourseFilter{TeacherID: &actor.ID}
	default:
		return repository.CourseFilter{StudentID: &actor.ID}
	}
}

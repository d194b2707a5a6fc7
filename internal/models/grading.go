package models

import (
	"fmt"
	"strings"
	"time"
)

// GradingStatus is the lifecycle phase of a task's peer grading.
type GradingStatus string

const (
	// GradingStatusStandby accepts submissions; peer review has not begun.
	GradingStatusStandby GradingStatus = "STANDBY"
	// GradingStatusStarted closes submissions; graders receive and score peers.
	GradingStatusStarted GradingStatus = "STARTED"
	// GradingStatusFinished is terminal; results have been aggregated.
	GradingStatusFinished GradingStatus = "FINISHED"
)

// ParseGradingStatus converts user input into a GradingStatus.
func ParseGradingStatus(value string) (GradingStatus, error) {
	status := GradingStatus(strings.ToUpper(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", fmt.Errorf("unknown grading status %q", value)
	}
	return status, nil
}

// Valid reports whether the status is one of the known phases.
func (s GradingStatus) Valid() bool {
	switch s {
	case GradingStatusStandby, GradingStatusStarted, GradingStatusFinished:
		return true
	default:
		return false
	}
}

func (s GradingStatus) rank() int {
	switch s {
	case GradingStatusStandby:
		return 1
	case GradingStatusStarted:
		return 2
	case GradingStatusFinished:
		return 3
	default:
		return 0
	}
}

// CanTransitionTo reports whether next lies strictly ahead of s in
// STANDBY -> STARTED -> FINISHED. Skipping STARTED is allowed; staying put is not.
func (s GradingStatus) CanTransitionTo(next GradingStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() > s.rank()
}

// AcceptsSubmissions reports whether new submissions may be created.
func (s GradingStatus) AcceptsSubmissions() bool {
	return s == GradingStatusStandby
}

// AcceptsGrades reports whether peer assignment and scoring may still happen.
func (s GradingStatus) AcceptsGrades() bool {
	return s.Valid() && s != GradingStatusFinished
}

// IsTerminal reports whether no further transitions exist.
func (s GradingStatus) IsTerminal() bool {
	return s == GradingStatusFinished
}

func (s GradingStatus) String() string {
	return string(s)
}

// Grading holds the peer review settings and lifecycle of a task.
type Grading struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	TaskID            uint          `gorm:"not null;uniqueIndex" json:"task_id"`
	Instructions      string        `gorm:"type:text" json:"instructions"`
	SubmissionsNumber int           `gorm:"not null;check:submissions_number >= 1" json:"submissions_number"`
	Status            GradingStatus `gorm:"size:16;not null;default:STANDBY" json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

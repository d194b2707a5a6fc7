package repository

import "errors"

var (
	// ErrStaleGradingStatus indicates the grading status changed between read and write.
	ErrStaleGradingStatus = errors.New("grading status changed concurrently")
	// ErrAssignmentExists indicates the grader already holds a workload for the task.
	ErrAssignmentExists = errors.New("peer assignment already exists")
	// ErrAssignmentMismatch indicates a grade targets a submission the grader was not assigned.
	ErrAssignmentMismatch = errors.New("grade does not match an assignment")
)

package service

import "errors"

// DomainError is a rejection with a stable machine-readable code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func newDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

var (
	// ErrPermissionDenied indicates the actor lacks rights for the operation.
	ErrPermissionDenied = newDomainError("PERMISSION_DENIED", "you do not have permission to perform this action")
	// ErrSubmissionWindowClosed indicates submissions are no longer accepted for the task.
	ErrSubmissionWindowClosed = newDomainError("SUBMISSION_WINDOW_CLOSED", "submissions are closed for this task")
	// ErrInvalidGradeDistribution indicates the grade batch is not a permutation of 1..M.
	ErrInvalidGradeDistribution = newDomainError("INVALID_GRADE_DISTRIBUTION", "grades must be a permutation of 1..N over the submitted entries")
	// ErrUnknownAssignment indicates a grade targets a submission not assigned to the grader.
	ErrUnknownAssignment = newDomainError("UNKNOWN_ASSIGNMENT", "grade submitted for a submission that was not assigned to you")
	// ErrGradingClosed indicates grading activity is over for the task.
	ErrGradingClosed = newDomainError("GRADING_CLOSED", "grading is finished for this task")
	// ErrInvalidTransition indicates the requested lifecycle move is not allowed.
	ErrInvalidTransition = newDomainError("INVALID_TRANSITION", "grading status can only move forward")
	// ErrConcurrencyConflict indicates a concurrent request changed the same state first.
	ErrConcurrencyConflict = newDomainError("CONCURRENCY_CONFLICT", "the grading status was changed by another request")
	// ErrGradingLocked indicates grading settings cannot change after peer review began.
	ErrGradingLocked = newDomainError("GRADING_LOCKED", "submissions number cannot change once grading has started")
	// ErrTaskNotFound indicates the task does not exist.
	ErrTaskNotFound = newDomainError("TASK_NOT_FOUND", "task not found")
	// ErrSubmissionNotFound indicates the submission does not exist.
	ErrSubmissionNotFound = newDomainError("SUBMISSION_NOT_FOUND", "submission not found")
	// ErrCourseNotFound indicates the course does not exist.
	ErrCourseNotFound = newDomainError("COURSE_NOT_FOUND", "course not found")
	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = newDomainError("USER_NOT_FOUND", "user not found")
	// ErrNotEnrolled indicates the actor is not a student of the task's course.
	ErrNotEnrolled = newDomainError("NOT_ENROLLED", "you are not enrolled in this course")
	// ErrAlreadySubmitted indicates the student already submitted for the task.
	ErrAlreadySubmitted = newDomainError("ALREADY_SUBMITTED", "a submission for this task already exists")
	// ErrUnsupportedFileType indicates the uploaded artifact is not a PDF.
	ErrUnsupportedFileType = newDomainError("UNSUPPORTED_FILE_TYPE", "only PDF files are accepted")
	// ErrFileTooLarge indicates the uploaded artifact exceeds the configured limit.
	ErrFileTooLarge = newDomainError("FILE_TOO_LARGE", "file exceeds maximum allowed size")
	// ErrInvalidInput indicates a payload value could not be interpreted.
	ErrInvalidInput = newDomainError("VALIDATION_FAILED", "invalid input")
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// invalidInput wraps ErrInvalidInput with a field specific message.
func invalidInput(message string) error {
	return &invalidInputError{message: message}
}

type invalidInputError struct {
	message string
}

func (e *invalidInputError) Error() string {
	return e.message
}

func (e *invalidInputError) Unwrap() error {
	return ErrInvalidInput
}

package services

import "errors"

// Error kinds. Every error returned by a service either wraps one of these
// or is a persistence failure.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication failed")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}

var (
	ErrTitleRequired      = newError(ErrValidation, "title is required")
	ErrDateRequired       = newError(ErrValidation, "date is required")
	ErrInvalidDate        = newError(ErrValidation, "date must be formatted as YYYY-MM-DD")
	ErrInvalidProgress    = newError(ErrValidation, "progress must be between 0 and 100")
	ErrInvalidPriority    = newError(ErrValidation, "priority must be one of: Low, Medium, High")
	ErrInvalidRole        = newError(ErrValidation, "role must be one of: user, admin")
	ErrAssigneeNotFound   = newError(ErrValidation, "assigned user does not exist")
	ErrPasswordTooShort   = newError(ErrValidation, "password must be at least 8 characters")
	ErrInvalidUsername    = newError(ErrValidation, "username must be between 3 and 50 characters")
	ErrInvalidEmail       = newError(ErrValidation, "a valid email address is required")
	ErrInvalidCredentials = newError(ErrUnauthenticated, "invalid email or password")
	ErrIdentityRejected   = newError(ErrUnauthenticated, "identity assertion rejected")
	ErrEmailNotVerified   = newError(ErrUnauthenticated, "identity provider email is not verified")
	ErrTaskAccessDenied   = newError(ErrForbidden, "you do not have access to this task")
	ErrAdminRequired      = newError(ErrForbidden, "admin role required")
	ErrSelfAdministration = newError(ErrForbidden, "admins cannot change the role of or delete their own account")
	ErrTaskNotFound       = newError(ErrNotFound, "task not found")
	ErrUserNotFound       = newError(ErrNotFound, "user not found")
	ErrEmailTaken         = newError(ErrConflict, "email already registered")
	ErrIdentityConflict   = newError(ErrConflict, "email is linked to a different identity")

	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
)

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors. The authorization reason codes are consumed by audit
// logs and support tooling; they are stable and must never be renamed.
var (
	ErrAuthRequired        = New("AUTH_REQUIRED", http.StatusUnauthorized, "authentication required")
	ErrInsufficientPerms   = New("INSUFFICIENT_PERMISSIONS", http.StatusForbidden, "insufficient permissions")
	ErrDataAccessViolation = New("DATA_ACCESS_VIOLATION", http.StatusForbidden, "access to another user's data denied")
	ErrCourseAccessDenied  = New("COURSE_ACCESS_DENIED", http.StatusForbidden, "not enrolled in this course")
	ErrCourseOwnership     = New("COURSE_OWNERSHIP_DENIED", http.StatusForbidden, "not the instructor of this course")
	ErrResourceNotFound    = New("RESOURCE_NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrNoMatchingRule      = New("NO_MATCHING_RULE", http.StatusForbidden, "no access rule matched")
	ErrResolverTimeout     = New("RESOLVER_TIMEOUT", http.StatusServiceUnavailable, "ownership lookup timed out")

	ErrScoreOutOfRange = New("SCORE_OUT_OF_RANGE", http.StatusBadRequest, "score outside declared bounds")
	ErrMaxSubmissions  = New("MAX_SUBMISSIONS_EXCEEDED", http.StatusConflict, "submission limit reached")

	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrPendingApproval    = New("PENDING_APPROVAL", http.StatusForbidden, "account awaiting approval")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrForbidden       = errors.New("forbidden access")
	ErrNotFound        = errors.New("requested resource not found")
	ErrDependency      = errors.New("dependency failure") // mail transport, geocoder, store
	ErrTooManyRequests = errors.New("too many requests")
)

const (
	genericServerMessage = "Server Error"
	duplicateMessage     = "Duplicate field value entered"
)

// Error is a failure with a kind (one of the sentinels above), a message that
// is safe to show to the caller and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

func Validation(format string, args ...interface{}) error {
	return newError(ErrValidation, nil, format, args...)
}

func Unauthorized(format string, args ...interface{}) error {
	return newError(ErrUnauthorized, nil, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return newError(ErrForbidden, nil, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newError(ErrNotFound, nil, format, args...)
}

func TooManyRequests(format string, args ...interface{}) error {
	return newError(ErrTooManyRequests, nil, format, args...)
}

// Dependency wraps a failure of an external collaborator.
func Dependency(cause error, format string, args ...interface{}) error {
	return newError(ErrDependency, cause, format, args...)
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrValidation) || isUniqueViolation(err) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrTooManyRequests) {
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// MessageFromError returns the caller-facing message for err. Failures
// without a kind never leak their text.
func MessageFromError(err error) string {
	if isUniqueViolation(err) {
		return duplicateMessage
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return genericServerMessage
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

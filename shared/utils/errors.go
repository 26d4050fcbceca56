package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures surfaced to API callers
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindBadRequest   ErrorKind = "bad_request"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindInternal     ErrorKind = "internal"
)

// AppError is an operational error carrying the HTTP status it maps to
type AppError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an application error
func NewAppError(kind ErrorKind, status int, message string, err error) *AppError {
	return &AppError{Kind: kind, Status: status, Message: message, Err: err}
}

func Unauthorized(message string) *AppError {
	return NewAppError(KindUnauthorized, http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return NewAppError(KindForbidden, http.StatusForbidden, message, nil)
}

func BadRequest(message string) *AppError {
	return NewAppError(KindBadRequest, http.StatusBadRequest, message, nil)
}

func NotFound(message string) *AppError {
	return NewAppError(KindNotFound, http.StatusNotFound, message, nil)
}

// Conflict is reported as 400 to keep the user endpoints' contract
func Conflict(message string) *AppError {
	return NewAppError(KindConflict, http.StatusBadRequest, message, nil)
}

// Internal wraps an unexpected collaborator failure
func Internal(message string, err error) *AppError {
	return NewAppError(KindInternal, http.StatusInternalServerError, message, err)
}

// AsAppError returns the AppError in err's chain, or an Internal error wrapping it
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

package apperrors

import (
	"errors"
	"fmt"
)

// Code is the stable machine-readable error code surfaced to API clients.
type Code string

const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeInternal        Code = "INTERNAL_ERROR"
)

var (
	ErrUnauthenticated = New("Authentication required", CodeUnauthenticated, 401)
	ErrUnauthorized    = New("Insufficient permissions", CodeUnauthorized, 403)

	ErrUserNotFound         = New("User not found", CodeNotFound, 404)
	ErrEventNotFound        = New("Event not found", CodeNotFound, 404)
	ErrRegistrationNotFound = New("Registration not found", CodeNotFound, 404)
	ErrCommentNotFound      = New("Comment not found", CodeNotFound, 404)

	ErrEmailTaken         = New("User with this email already exists", CodeBadRequest, 400)
	ErrInvalidCredentials = New("Invalid email or password", CodeUnauthenticated, 401)
	ErrEventNotPublished  = New("Event is not available for registration", CodeBadRequest, 400)
	ErrAlreadyRegistered  = New("Already registered for this event", CodeBadRequest, 400)
	ErrEventFull          = New("Event is full", CodeBadRequest, 400)

	ErrInvalidInput        = New("Invalid input", CodeValidation, 400)
	ErrInternalServerError = New("Internal server error", CodeInternal, 500)
)

// AppError carries a client-safe message, a stable code and an HTTP-like status.
type AppError struct {
	Message string
	Code    Code
	Status  int
	Fields  map[string]string
}

func New(message string, code Code, status int) *AppError {
	return &AppError{Message: message, Code: code, Status: status}
}

// Validation builds a VALIDATION_ERROR with per-field detail.
func Validation(message string, fields map[string]string) *AppError {
	return &AppError{Message: message, Code: CodeValidation, Status: 400, Fields: fields}
}

func (e *AppError) Error() string {
	return e.Message
}

// Is makes sentinel comparison via errors.Is work on wrapped copies.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code && e.Message == other.Message
}

// From classifies an arbitrary error. Anything that is not already an
// *AppError is treated as unexpected and sanitized to INTERNAL_ERROR so raw
// internals never reach a client.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError
}

// Wrap annotates err for logs while keeping the AppError classification
// reachable through errors.As.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

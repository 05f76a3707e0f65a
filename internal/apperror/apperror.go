// Package apperror defines the application's error taxonomy.
//
// Every layer below the HTTP handlers returns these errors (or wraps them with
// fmt.Errorf("...: %w", err)). Only internal/handler translates them into
// status codes, so the service and repository layers never know about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationMessage is the title used for field-keyed validation failures.
const ValidationMessage = "One or more validation errors occurred."

type AppError struct {
	Err     error               // actual error
	Message string              // Human-readable error message
	Field   string              // Optional: field causing the error
	Fields  map[string][]string // Optional: every failing field (or patch path) with its messages
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  map[string][]string{field: {message}},
	}
}

// Validation bundles several field failures into one error.
// The map is keyed by the wire name of the field, e.g. "name".
func Validation(fields map[string][]string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: ValidationMessage,
		Fields:  fields,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError indicating the caller could not be
// authenticated. HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

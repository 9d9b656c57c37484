// Package apperror defines the error kinds shared by repositories, services
// and handlers. Handlers map the kinds to HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError carries a kind (Err), a message safe to show to the client and,
// for validation failures, the offending field.
type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource with the given id.
func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// ValidationFailed reports a constraint violation on a single field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Fields collects the per-field messages of every validation AppError in
// err's chain, including errors joined with errors.Join.
func Fields(err error) map[string]string {
	out := make(map[string]string)
	collect(err, out)
	return out
}

func collect(err error, out map[string]string) {
	if err == nil {
		return
	}
	switch e := err.(type) {
	case *AppError:
		if errors.Is(e.Err, ErrValidation) && e.Field != "" {
			if _, seen := out[e.Field]; !seen {
				out[e.Field] = e.Message
			}
		}
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			collect(inner, out)
		}
	case interface{ Unwrap() error }:
		collect(e.Unwrap(), out)
	}
}

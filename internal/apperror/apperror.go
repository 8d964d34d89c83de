package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("Validation Error")

	// ErrInsufficientPool is a validation-class error: errors.Is matches both
	// ErrInsufficientPool and ErrValidation.
	ErrInsufficientPool = fmt.Errorf("insufficient keyword pool: %w", ErrValidation)
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
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
	}
}

// InsufficientPool reports a draw attempted on a pool with fewer than two
// keywords. HTTP handlers map this to 400 Bad Request.
func InsufficientPool(size int) *AppError {
	return &AppError{
		Err:     ErrInsufficientPool,
		Message: fmt.Sprintf("at least 2 keywords are required to draw, pool has %d", size),
	}
}

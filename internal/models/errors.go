package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("access token required")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrNoFile             = errors.New("no file uploaded")
	ErrNothingToDelete    = errors.New("nothing to delete")
	ErrFileTooLarge       = errors.New("file too large")

	// ErrAttachmentNotFound juga cocok dengan errors.Is(err, ErrNotFound).
	ErrAttachmentNotFound = fmt.Errorf("attachment %w", ErrNotFound)
)

// ValidationError membawa pesan yang bisa ditampilkan ke client.
// errors.Is(err, ErrValidation) bernilai true.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

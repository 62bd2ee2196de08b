package masks

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrMaskNotFound = errors.New("edit mask not found")
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError represents an error when a mask is not found
type NotFoundError struct {
	MediaFileID uint
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("edit mask for media file %d not found", e.MediaFileID)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrMaskNotFound
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

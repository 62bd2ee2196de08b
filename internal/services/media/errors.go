package media

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrMediaNotFound = errors.New("media file not found")
	ErrInvalidInput  = errors.New("invalid input")
)

// NotFoundError represents an error when a media file is not found
type NotFoundError struct {
	ID interface{}
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("media file with identifier %v not found", e.ID)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrMediaNotFound
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

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(id interface{}) error {
	return NotFoundError{ID: id}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFoundErr NotFoundError
	return errors.As(err, &notFoundErr) || errors.Is(err, ErrMediaNotFound)
}

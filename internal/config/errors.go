package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrSettingNotFound indicates the setting path doesn't exist.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrTypeMismatch indicates the value type doesn't match the expected type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidPath indicates an invalid setting path format.
	ErrInvalidPath = errors.New("invalid setting path")

	// ErrValidationFailed indicates one or more settings are unusable.
	ErrValidationFailed = errors.New("validation failed")
)

// TypeError is returned when a type conversion fails.
type TypeError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// Is implements error matching for TypeError.
func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// ValidationError collects the setting errors found by Validate.
type ValidationError struct {
	Errors map[string]error
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		for path, err := range e.Errors {
			return fmt.Sprintf("invalid setting %s: %v", path, err)
		}
	}
	return fmt.Sprintf("%d invalid settings", len(e.Errors))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

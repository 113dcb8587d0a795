package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrUnsupportedTestKind = errors.New("unsupported test kind")
	ErrMissingColumn       = errors.New("missing column")
	ErrColumnKind          = errors.New("column has the wrong kind")
	ErrInvalidOption       = errors.New("invalid option")

	// Data errors
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrLengthMismatch   = fmt.Errorf("%w: column lengths differ", ErrInsufficientData)

	// Lookup errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)
	ErrConflict    = errors.New("resource already exists")
)

// NewUnsupportedTestKindError reports an unrecognized tag together with the
// values the parser accepts.
func NewUnsupportedTestKindError(kind, value string, accepted []string) error {
	return fmt.Errorf("%w: %s %q (accepted: %s)", ErrUnsupportedTestKind, kind, value, strings.Join(accepted, ", "))
}

func NewMissingColumnError(name string) error {
	return fmt.Errorf("%w: %q", ErrMissingColumn, name)
}

func NewInsufficientDataError(test string, need, got int) error {
	return fmt.Errorf("%w: %s needs at least %d observations, got %d", ErrInsufficientData, test, need, got)
}

func NewInvalidOptionError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidOption, field, reason)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsUnsupportedTestKind(err error) bool {
	return errors.Is(err, ErrUnsupportedTestKind)
}

func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsMissingColumn(err error) bool {
	return errors.Is(err, ErrMissingColumn)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError reports errors caused by caller input rather than data.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrUnsupportedTestKind) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrColumnKind) ||
		errors.Is(err, ErrInvalidOption)
}

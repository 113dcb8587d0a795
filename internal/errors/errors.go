package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"gostatsplot/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. The code is kept from an
// AppError in the chain, else derived from the domain sentinels.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, else
// the code of the domain sentinel it wraps, else CodeInternalError.
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return domainCode(err)
}

func domainCode(err error) string {
	switch {
	case stderrors.Is(err, core.ErrUnsupportedTestKind):
		return CodeUnsupportedTestKind
	case stderrors.Is(err, core.ErrMissingColumn), stderrors.Is(err, core.ErrColumnKind):
		return CodeMissingColumn
	case stderrors.Is(err, core.ErrInvalidOption):
		return CodeInvalidInput
	case stderrors.Is(err, core.ErrInsufficientData):
		return CodeInsufficientData
	case stderrors.Is(err, core.ErrNotFound):
		return CodeNotFound
	case stderrors.Is(err, core.ErrConflict):
		return CodeConflict
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	}
	return CodeInternalError
}

// HTTPStatus maps an error to the status code an HTTP boundary returns
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch GetCode(err) {
	case CodeUnsupportedTestKind, CodeMissingColumn, CodeInvalidInput, CodeValidationError:
		return http.StatusBadRequest
	case CodeInsufficientData:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeCanceled:
		return http.StatusRequestTimeout
	case CodeDatabaseError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Predefined error codes
const (
	CodeConfigInvalid       = "CONFIG_INVALID"
	CodeDatabaseError       = "DATABASE_ERROR"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeUnsupportedTestKind = "UNSUPPORTED_TEST_KIND"
	CodeMissingColumn       = "MISSING_COLUMN"
	CodeInsufficientData    = "INSUFFICIENT_DATA"
	CodeCanceled            = "CANCELED"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

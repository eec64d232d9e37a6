// Package errors defines the application error type shared by services and transports.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data.
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeUnauthenticated indicates the caller has no valid session.
	ErrCodeUnauthenticated ErrorCode = "unauthenticated"
	// ErrCodeForbidden indicates the caller lacks the required role.
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeUnavailable indicates a backing store or the identity provider could not be reached.
	ErrCodeUnavailable ErrorCode = "unavailable"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// Message is safe to show to end users; Cause is for logs only.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Field is the input field that caused the error (validation only).
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newf(code ErrorCode, format string, args ...any) *AppError {
	if len(args) == 0 {
		return &AppError{Code: code, Message: format}
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError { return &AppError{Code: ErrCodeNotFound, Message: message} }

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError { return newf(ErrCodeNotFound, format, args...) }

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError { return &AppError{Code: ErrCodeConflict, Message: message} }

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return newf(ErrCodeValidation, format, args...)
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Unauthenticated creates a new Unauthenticated error.
func Unauthenticated(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthenticated, Message: message}
}

// Forbidden creates a new Forbidden error.
func Forbidden(message string) *AppError { return &AppError{Code: ErrCodeForbidden, Message: message} }

// Internal creates a new Internal error.
func Internal(message string) *AppError { return &AppError{Code: ErrCodeInternal, Message: message} }

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WrapCall wraps the failure of an outbound store or provider call.
// Deadline and cancellation errors keep their own codes so callers can
// tell a transient timeout from a hard failure; everything else gets code.
func WrapCall(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &AppError{Code: ErrCodeTimeout, Message: message, Cause: err}
	case errors.Is(err, context.Canceled):
		return &AppError{Code: ErrCodeCanceled, Message: message, Cause: err}
	default:
		return &AppError{Code: code, Message: message, Cause: err}
	}
}

func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool { return isCode(err, ErrCodeNotFound) }

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool { return isCode(err, ErrCodeConflict) }

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool { return isCode(err, ErrCodeValidation) }

// IsUnauthenticated checks if an error is an Unauthenticated error.
func IsUnauthenticated(err error) bool { return isCode(err, ErrCodeUnauthenticated) }

// IsForbidden checks if an error is a Forbidden error.
func IsForbidden(err error) bool { return isCode(err, ErrCodeForbidden) }

// IsUnavailable checks if an error is an Unavailable error.
func IsUnavailable(err error) bool { return isCode(err, ErrCodeUnavailable) }

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool { return isCode(err, ErrCodeInternal) }

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool { return isCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool { return isCode(err, ErrCodeCanceled) }

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// PublicMessage returns the user-facing message of an AppError, or fallback for any other error.
func PublicMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// Package errors defines the coded application errors returned by the service layer.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown       = "UNKNOWN_ERROR"
	CodeParseError    = "PARSE_ERROR"
	CodeDecodeError   = "DECODE_ERROR"
	CodeEncodeError   = "ENCODE_ERROR"
	CodeStorageError  = "STORAGE_ERROR"
	CodeDatabaseError = "DATABASE_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeNotFound      = "NOT_FOUND"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError. A nil err yields nil.
func Wrap(code string, message string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(code string, err error, format string, args ...interface{}) error {
	return Wrap(code, fmt.Sprintf(format, args...), err)
}

// Common error instances, for use with errors.Is.
var (
	ErrParseError    = New(CodeParseError, "parse error")
	ErrDecodeError   = New(CodeDecodeError, "decode error")
	ErrEncodeError   = New(CodeEncodeError, "encode error")
	ErrStorageError  = New(CodeStorageError, "storage error")
	ErrDatabaseError = New(CodeDatabaseError, "database error")
	ErrConfigError   = New(CodeConfigError, "configuration error")
	ErrInvalidInput  = New(CodeInvalidInput, "invalid input")
	ErrNotFound      = New(CodeNotFound, "resource not found")
)

// IsParseError checks if the error is a profiler report parse error.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParseError)
}

// IsDecodeError checks if the error is a tag decode error.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrDecodeError)
}

// IsNotFound checks if the error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Process exit statuses used by the CLI.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitDataError   = 3
	ExitUnavailable = 4
)

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch GetErrorCode(err) {
	case CodeInvalidInput, CodeConfigError:
		return ExitUsage
	case CodeParseError, CodeDecodeError, CodeEncodeError:
		return ExitDataError
	case CodeStorageError, CodeDatabaseError, CodeNotFound:
		return ExitUnavailable
	default:
		return ExitFailure
	}
}

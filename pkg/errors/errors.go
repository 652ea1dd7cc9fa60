package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrAlreadyRegistered
	ErrAlreadyConfigured
	ErrInvalidEntityType
	ErrInvalidLevel
	ErrInvalidExpiry
	ErrInternal
)

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
	}
}

func AlreadyRegistered(principal string) *AppError {
	return &AppError{
		Code:    ErrAlreadyRegistered,
		Message: fmt.Sprintf("principal %s is already registered", principal),
	}
}

func AlreadyConfigured(what string) *AppError {
	return &AppError{
		Code:    ErrAlreadyConfigured,
		Message: fmt.Sprintf("%s is already configured", what),
	}
}

func InvalidEntityType(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidEntityType,
		Message: message,
	}
}

func InvalidLevel(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidLevel,
		Message: message,
	}
}

func InvalidExpiry(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidExpiry,
		Message: message,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// CodeOf extracts the ErrorCode from err, or ErrInternal when err is not an
// AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCode represents application error codes
type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeRateLimit    ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"

	// Session error taxonomy. Provisioning and protocol errors surface to the
	// user and fail the session; canceled and injection errors stay local.
	ErrCodeProvisioning ErrorCode = "PROVISIONING_FAILED"
	ErrCodeProtocol     ErrorCode = "PROTOCOL_ERROR"
	ErrCodeCanceled     ErrorCode = "CANCELED"
	ErrCodeInjection    ErrorCode = "INJECTION_FAILED"
)

// AppError represents an application error with code and context
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	Context    map[string]interface{}
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Context:    make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with application error
func WrapError(err error, code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Cause:      err,
		Context:    make(map[string]interface{}),
	}
}

// Common error constructors
func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func NewConflictError(message string) *AppError {
	return NewAppError(ErrCodeConflict, message, http.StatusConflict)
}

func NewRateLimitError() *AppError {
	return NewAppError(ErrCodeRateLimit, "rate limit exceeded", http.StatusTooManyRequests)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrCodeInternal, message, http.StatusInternalServerError)
}

// NewProvisioningError wraps a transport failure that occurred while
// establishing the device connection.
func NewProvisioningError(message string, cause error) *AppError {
	return WrapError(cause, ErrCodeProvisioning, message, http.StatusBadGateway)
}

// NewProtocolError wraps malformed or missing stream metadata.
func NewProtocolError(message string, cause error) *AppError {
	return WrapError(cause, ErrCodeProtocol, message, http.StatusBadGateway)
}

// NewInjectionError wraps a failed input injection call. Injection errors are
// logged by the caller and never tear down the session.
func NewInjectionError(message string, cause error) *AppError {
	return WrapError(cause, ErrCodeInjection, message, http.StatusBadGateway)
}

// NewCanceledError marks a stream abort caused by our own stop or restart.
func NewCanceledError(message string, cause error) *AppError {
	return WrapError(cause, ErrCodeCanceled, message, http.StatusConflict)
}

// IsAppError checks if error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError extracts AppError from error chain
func GetAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	// Try to unwrap
	type unwrapper interface {
		Unwrap() error
	}

	if u, ok := err.(unwrapper); ok {
		return GetAppError(u.Unwrap())
	}

	return nil
}

// IsExpectedCancellation reports whether err is a stream or channel abort
// caused by our own stop/restart calls. Such errors are recovered silently
// and never surfaced as session failures.
func IsExpectedCancellation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	if appErr := GetAppError(err); appErr != nil && appErr.Code == ErrCodeCanceled {
		return true
	}
	return false
}

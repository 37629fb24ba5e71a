package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of pipeline errors
type ErrorType string

const (
	// ErrorTypeFeatureNotAvailable means the capability is absent on this
	// system; the pipeline should not have been invoked. Non-retryable.
	ErrorTypeFeatureNotAvailable ErrorType = "feature_not_available"
	// ErrorTypeInvalidImage means the input image is nil, zero-size or
	// otherwise malformed. Non-retryable.
	ErrorTypeInvalidImage ErrorType = "invalid_image"
	// ErrorTypeModelLoading means a model failed to load or validate.
	// Retryable on the next call.
	ErrorTypeModelLoading ErrorType = "model_loading_failed"
	// ErrorTypeAnalysisTimeout is a per-analyzer deadline miss, tolerated
	// as partial failure.
	ErrorTypeAnalysisTimeout ErrorType = "analysis_timeout"
	// ErrorTypeInsufficientMemory is retryable after backing off concurrency.
	ErrorTypeInsufficientMemory ErrorType = "insufficient_memory"
	// ErrorTypeBackend wraps any underlying inference-backend failure.
	ErrorTypeBackend ErrorType = "backend_error"

	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether a later call may succeed without intervention.
func (e *AppError) Retryable() bool {
	switch e.Type {
	case ErrorTypeModelLoading, ErrorTypeAnalysisTimeout,
		ErrorTypeInsufficientMemory, ErrorTypeBackend, ErrorTypeNetwork:
		return true
	}
	return false
}

// NewFeatureNotAvailableError creates an error for missing system capability
func NewFeatureNotAvailableError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeFeatureNotAvailable,
		Message:    message,
		StatusCode: http.StatusNotImplemented,
	}
}

// NewInvalidImageError creates an error for malformed image input
func NewInvalidImageError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidImage,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewModelLoadingError creates an error for a model that failed to load
func NewModelLoadingError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeModelLoading,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// NewAnalysisTimeoutError creates a per-analyzer timeout error
func NewAnalysisTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeAnalysisTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewInsufficientMemoryError creates a memory-pressure error
func NewInsufficientMemoryError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInsufficientMemory,
		Message:    message,
		StatusCode: http.StatusInsufficientStorage,
		Cause:      cause,
	}
}

// NewBackendError wraps an underlying inference-backend failure
func NewBackendError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeBackend,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeUnsupportedMedia ErrorType = "unsupported_media"
	ErrorTypeImageDecode      ErrorType = "image_decode"
	ErrorTypeImageTooLarge    ErrorType = "image_too_large"
	ErrorTypeOCRFailed        ErrorType = "ocr_failed"
	ErrorTypeTimeout          ErrorType = "timeout"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeInternal         ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
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

// Retryable reports whether re-running the whole pipeline may succeed
func (e *AppError) Retryable() bool {
	return e.Type == ErrorTypeOCRFailed || e.Type == ErrorTypeTimeout
}

func newAppError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewUnsupportedMediaError is returned for uploads that are not JPEG or PNG
func NewUnsupportedMediaError(message string, cause error) *AppError {
	return newAppError(ErrorTypeUnsupportedMedia, http.StatusUnsupportedMediaType, message, cause)
}

// NewImageDecodeError is returned when the payload is not a decodable raster.
// Not retryable: the caller must supply a valid image.
func NewImageDecodeError(message string, cause error) *AppError {
	return newAppError(ErrorTypeImageDecode, http.StatusUnprocessableEntity, message, cause)
}

// NewImageTooLargeError is returned when byte size or pixel dimensions exceed policy
func NewImageTooLargeError(message string, cause error) *AppError {
	return newAppError(ErrorTypeImageTooLarge, http.StatusRequestEntityTooLarge, message, cause)
}

// NewOCRFailedError wraps engine failures and timeouts
func NewOCRFailedError(message string, cause error) *AppError {
	return newAppError(ErrorTypeOCRFailed, http.StatusBadGateway, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newAppError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// IsType checks if the error, or any error it wraps, is of a specific type
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

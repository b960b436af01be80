package types

import "fmt"

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Domain code MUST use these constants instead of
// hardcoded strings so failure classes stay greppable and testable.
const (
	// Validation
	ErrCodeValidationInvalidLat      ErrorCode = "validation_invalid_latitude"
	ErrCodeValidationInvalidLon      ErrorCode = "validation_invalid_longitude"
	ErrCodeValidationInvalidTimezone ErrorCode = "validation_invalid_timezone"
	ErrCodeValidationInvalidTestMode ErrorCode = "validation_invalid_test_mode"

	// Upstream collaborators
	ErrCodeUpstreamForecast      ErrorCode = "upstream_forecast_unavailable"
	ErrCodeUpstreamEmailProvider ErrorCode = "upstream_email_provider_unavailable"
	ErrCodeUpstreamRateLimited   ErrorCode = "upstream_rate_limited"
	ErrCodeEmailBlocked          ErrorCode = "email_blocked"

	// Internal
	ErrCodeInternalHistoryIO  ErrorCode = "internal_history_io_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// AppError is the standard application error type. All domain errors are
// expressed as AppError to enable consistent classification, logging, and
// error chain support.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

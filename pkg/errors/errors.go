package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a standardized error code
type ErrorCode string

// Standard error codes organized by category
const (
	// Storage errors
	ErrCodeStorageNotFound       ErrorCode = "STORAGE_NOT_FOUND"
	ErrCodeStorageConnection     ErrorCode = "STORAGE_CONNECTION"
	ErrCodeStorageTransaction    ErrorCode = "STORAGE_TRANSACTION"
	ErrCodeStorageInvalidQuery   ErrorCode = "STORAGE_INVALID_QUERY"
	ErrCodeStorageInitialization ErrorCode = "STORAGE_INITIALIZATION"

	// Validation errors
	ErrCodeValidationRequired  ErrorCode = "VALIDATION_REQUIRED"
	ErrCodeValidationInvalid   ErrorCode = "VALIDATION_INVALID"
	ErrCodeValidationFormat    ErrorCode = "VALIDATION_FORMAT"
	ErrCodeValidationDuplicate ErrorCode = "VALIDATION_DUPLICATE"

	// Scene and naming errors
	ErrCodeEntityNotFound        ErrorCode = "ENTITY_NOT_FOUND"
	ErrCodeEntityAlreadyExists   ErrorCode = "ENTITY_ALREADY_EXISTS"
	ErrCodeEmptySelection        ErrorCode = "EMPTY_SELECTION"
	ErrCodeWriteRejected         ErrorCode = "WRITE_REJECTED"
	ErrCodeSuffixSearchExhausted ErrorCode = "SUFFIX_SEARCH_EXHAUSTED"
	ErrCodeUnknownAction         ErrorCode = "UNKNOWN_ACTION"

	// System errors
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	ErrCodePanic           ErrorCode = "PANIC_RECOVERED"
	ErrCodeConfiguration   ErrorCode = "CONFIGURATION_ERROR"
)

// AppError represents a standardized application error
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Internal error       `json:"-"` // Internal error not shown to users
}

// Error implements the error interface
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// ToJSON returns a JSON representation of the error without the internal cause
func (e *AppError) ToJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	return &AppError{
		Code:     code,
		Message:  message,
		Internal: err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	if err == nil {
		return nil
	}

	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Is checks if the outermost AppError in err's chain has a specific error code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}

	return appErr.Code == code
}

// IsAny checks if an error matches any of the provided codes
func IsAny(err error, codes ...ErrorCode) bool {
	for _, code := range codes {
		if Is(err, code) {
			return true
		}
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return ErrCodeInternal
	}

	return appErr.Code
}

// GetMessage returns a message that is safe to print to the user
func GetMessage(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return "An internal error occurred"
	}

	return appErr.Message
}

// GetInternal returns the internal error for logging
func GetInternal(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return err
	}

	if appErr.Internal != nil {
		return appErr.Internal
	}

	return appErr
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return Newf(ErrCodeEntityNotFound, "%s not found", resource)
}

// AlreadyExists creates an already exists error
func AlreadyExists(resource string) *AppError {
	return Newf(ErrCodeEntityAlreadyExists, "%s already exists", resource)
}

// ValidationRequired creates a validation required error
func ValidationRequired(field string) *AppError {
	return Newf(ErrCodeValidationRequired, "%s is required", field)
}

// ValidationInvalid creates a validation invalid error
func ValidationInvalid(field, reason string) *AppError {
	return Newf(ErrCodeValidationInvalid, "%s is invalid: %s", field, reason)
}

// Internal creates an internal error with a safe message
func Internal(internalErr error) *AppError {
	return Wrap(internalErr, ErrCodeInternal, "An internal error occurred")
}

package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrInvalidFormat = errors.New("invalid token format")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Record state and key codec errors
var (
	// ErrInvalidState is returned when an operation needs state the record does not have yet,
	// e.g. deriving an external id before the storage layer assigned the internal key.
	ErrInvalidState = errors.New("invalid state")
	// ErrKeyAlreadyAssigned is returned when the storage layer tries to assign a key twice.
	ErrKeyAlreadyAssigned = errors.New("internal key already assigned")
	// ErrEncodingFailure wraps failures of the raw key encoder.
	ErrEncodingFailure = errors.New("key encoding failed")
	// ErrMalformedKey is returned when an external id cannot be decoded.
	ErrMalformedKey = errors.New("malformed key")
)

// Feedback question errors
var (
	ErrFeedbackQuestionNotFound      = errors.New("feedback question not found")
	ErrFeedbackQuestionAlreadyExists = errors.New("feedback question with this number already exists in the session")
)

// NewValidationError creates a new custom error for failed validation with a message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

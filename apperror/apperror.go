// Package apperror defines a centralized system for application-specific errors.
// Services and repositories return *AppError values so that the HTTP layer can map
// every failure to a consistent status code and response body.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines the type of application error.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// DatabaseError represents an error originating from the database
	DatabaseError
	// ConfigError represents an error related to application configuration
	ConfigError
	// AuthError represents an authentication error (missing or invalid token)
	AuthError
	// CredentialsError represents a failed login attempt. It deliberately does not
	// distinguish an unknown email from a wrong password.
	CredentialsError
	// NotFoundError represents a resource not found error
	NotFoundError
	// ValidationError represents an input validation error with field-level messages
	ValidationError
	// BadRequestError represents a generic bad request (malformed body or form)
	BadRequestError
	// InternalError represents a generic internal server error
	InternalError
	// MigrationError represents an error during database migrations
	MigrationError
)

// AppError is the application's error type. It carries a user-facing Message,
// an optional map of field-level validation messages, and may wrap an
// underlying error for debugging.
type AppError struct {
	Type    ErrorType
	Message string
	Fields  map[string][]string
	Err     error
}

// Error satisfies the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error so errors.Is/As can walk the chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code appropriate for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case AuthError:
		return http.StatusUnauthorized
	case NotFoundError:
		return http.StatusNotFound
	case ValidationError, CredentialsError:
		return http.StatusUnprocessableEntity
	case BadRequestError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WithFields attaches field-level messages to the error and returns it,
// allowing constructor chaining.
func (e *AppError) WithFields(fields map[string][]string) *AppError {
	e.Fields = fields
	return e
}

// NewAppError creates a new AppError.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(message string, underlyingError error) *AppError {
	return NewAppError(DatabaseError, message, underlyingError)
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string, underlyingError error) *AppError {
	return NewAppError(ConfigError, message, underlyingError)
}

// NewAuthError creates a new AuthError (for authentication issues)
func NewAuthError(message string, underlyingError error) *AppError {
	return NewAppError(AuthError, message, underlyingError)
}

// NewCredentialsError creates a new CredentialsError. The message is keyed on the
// email field so the response shape matches a validation failure.
func NewCredentialsError() *AppError {
	e := NewAppError(CredentialsError, "Invalid credentials", nil)
	e.Fields = map[string][]string{"email": {"Invalid credentials"}}
	return e
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string, underlyingError error) *AppError {
	return NewAppError(NotFoundError, message, underlyingError)
}

// NewValidationError creates a new ValidationError
func NewValidationError(message string, underlyingError error) *AppError {
	return NewAppError(ValidationError, message, underlyingError)
}

// NewBadRequestError creates a new BadRequestError
func NewBadRequestError(message string, underlyingError error) *AppError {
	return NewAppError(BadRequestError, message, underlyingError)
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// NewMigrationError creates a new MigrationError
func NewMigrationError(message string, underlyingError error) *AppError {
	return NewAppError(MigrationError, message, underlyingError)
}

// ErrorResponse is the JSON body returned for any failed request.
type ErrorResponse struct {
	Message string              `json:"message" example:"The given data was invalid"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse suitable for API clients.
// Only the user-facing Message and Fields are exposed, never the wrapped error.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Message: e.Message, Errors: e.Fields}
}

// FromError attempts to convert a generic error to an *AppError.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == NotFoundError
}

// IsAuthError checks if an error is an AuthError
func IsAuthError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == AuthError
}

// IsValidationError checks if an error is a Validation error
func IsValidationError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ValidationError
}

// IsCredentialsError checks if an error is a Credentials error
func IsCredentialsError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == CredentialsError
}

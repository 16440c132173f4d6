// Package errors provides the unified error type for the session subsystem.
// Every failure crossing the service or middleware boundary is an *AppError
// carrying a machine-readable code, an HTTP status, and an optional cause
// that is logged but never serialized to clients.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message safe to show to clients.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the HTTP status code this error maps to.
	HTTPStatus int `json:"-"`
	// Details contains additional machine-readable context.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error. Logged, never sent to clients.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Validation ---

// Validation creates an AppError for a failed input validation.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingField creates an AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// InvalidEmail creates an AppError for a malformed email address.
func InvalidEmail() *AppError {
	return &AppError{
		Code: ErrCodeInvalidFormat, Message: "Invalid email format",
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": "email"},
	}
}

// WeakPassword creates an AppError enumerating the failed strength rules.
func WeakPassword(failures []string) *AppError {
	return &AppError{
		Code: ErrCodeWeakPassword, Message: "Password does not meet requirements",
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"requirements": failures},
	}
}

// --- Accounts ---

// EmailTaken creates an AppError for a duplicate email registration.
func EmailTaken() *AppError {
	return &AppError{
		Code: ErrCodeConflict, Message: "Email already registered",
		HTTPStatus: http.StatusConflict, Retryable: false,
	}
}

// InvalidCredentials creates the deliberately generic login failure.
// The same value is returned for an unknown email and a wrong password so
// callers cannot enumerate accounts from the response.
func InvalidCredentials() *AppError {
	return &AppError{
		Code: ErrCodeInvalidCredentials, Message: "Invalid credentials",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// NotFound creates an AppError for a resource that was not found.
func NotFound(resource string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"resource": resource},
	}
}

// --- Tokens ---

// Unauthenticated creates an AppError for a request carrying no credential.
// Kept distinct from InvalidToken so callers know to prompt a login rather
// than attempt a refresh.
func Unauthenticated() *AppError {
	return &AppError{
		Code: ErrCodeUnauthenticated, Message: "Authentication required",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// InvalidToken creates an AppError for a presented-but-unusable token.
// Malformed, expired, and wrong-class all collapse to this generic message;
// the specific reason is logged, not returned.
func InvalidToken() *AppError {
	return &AppError{
		Code: ErrCodeInvalidToken, Message: "Invalid or expired token",
		HTTPStatus: http.StatusForbidden, Retryable: false,
	}
}

// TokenRevoked creates an AppError for an explicitly revoked token.
func TokenRevoked() *AppError {
	return &AppError{
		Code: ErrCodeTokenRevoked, Message: "Token has been revoked",
		HTTPStatus: http.StatusForbidden, Retryable: false,
	}
}

// --- Backpressure and infrastructure ---

// RateLimited creates an AppError carrying the retry-after duration.
// This is backpressure, not a security failure.
func RateLimited(retryAfter time.Duration) *AppError {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Too many attempts. Please try again later.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
		Details: map[string]any{"retry_after": seconds},
	}
}

// Storage creates an AppError for an opaque storage failure. The cause is
// logged with detail; clients only see a generic message.
func Storage(cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorage, Message: "A storage error occurred. Please try again.",
		HTTPStatus: http.StatusInternalServerError, Retryable: true, Cause: cause,
	}
}

// Internal creates an AppError for an unexpected internal failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
	// ErrCodeInvalidFormat indicates a field has an invalid format.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodeWeakPassword indicates the password fails the strength policy.
	ErrCodeWeakPassword ErrorCode = "WEAK_PASSWORD"
)

// Account errors
const (
	// ErrCodeConflict indicates the email is already registered.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeInvalidCredentials indicates a failed login. Deliberately does
	// not distinguish an unknown account from a wrong password.
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Token errors
const (
	// ErrCodeUnauthenticated indicates no credential was presented.
	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	// ErrCodeInvalidToken indicates the presented token is unusable.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	// ErrCodeTokenRevoked indicates the token was explicitly revoked.
	ErrCodeTokenRevoked ErrorCode = "TOKEN_REVOKED"
)

// Backpressure and infrastructure errors
const (
	// ErrCodeRateLimited indicates the client exceeded an attempt limit.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeStorage indicates an opaque storage failure.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeRateLimited: true,
	ErrCodeStorage:     true,
	ErrCodeInternal:    false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

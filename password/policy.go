package password

import "unicode"

// Strength policy rule messages. Check returns every rule the candidate
// fails so clients can show all requirements at once.
const (
	failureMinLength = "must be at least 8 characters long"
	failureUpper     = "must contain at least one uppercase letter"
	failureLower     = "must contain at least one lowercase letter"
	failureDigit     = "must contain at least one digit"
)

// MinLength is the minimum accepted password length.
const MinLength = 8

// CheckStrength validates a candidate password against the account policy:
// minimum length 8, at least one uppercase letter, one lowercase letter, and
// one digit. The returned slice enumerates the failed rules; it is empty for
// an acceptable password.
func CheckStrength(candidate string) []string {
	var failures []string

	if len(candidate) < MinLength {
		failures = append(failures, failureMinLength)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		failures = append(failures, failureUpper)
	}
	if !hasLower {
		failures = append(failures, failureLower)
	}
	if !hasDigit {
		failures = append(failures, failureDigit)
	}
	return failures
}

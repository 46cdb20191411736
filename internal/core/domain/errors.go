package domain

import "errors"

// Common domain errors
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("concurrent update conflict")
	ErrInvalidInput    = errors.New("invalid input")
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrWeakPassword       = errors.New("password does not meet the minimum length policy")
)

// Password recovery errors
var (
	ErrOTPNotFound = errors.New("no reset code requested for this email")
	ErrOTPExpired  = errors.New("reset code has expired")
	ErrOTPInvalid  = errors.New("reset code is invalid or already used")
)

// Lifecycle errors
var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrReasonRequired     = errors.New("rejection reason is required")
	ErrSubmissionRequired = errors.New("submission details are required")
	ErrPendingExists      = errors.New("a pending application already exists for this email")
	ErrEmailTaken         = errors.New("email already registered")
)

// ErrorCode returns the stable machine-readable code for a domain error,
// or empty string when err is not part of the taxonomy.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, ErrAccountLocked):
		return "ACCOUNT_LOCKED"
	case errors.Is(err, ErrOTPNotFound):
		return "OTP_NOT_FOUND"
	case errors.Is(err, ErrOTPExpired):
		return "OTP_EXPIRED"
	case errors.Is(err, ErrOTPInvalid):
		return "OTP_INVALID"
	case errors.Is(err, ErrWeakPassword):
		return "WEAK_PASSWORD"
	case errors.Is(err, ErrReasonRequired):
		return "REASON_REQUIRED"
	case errors.Is(err, ErrSubmissionRequired):
		return "SUBMISSION_REQUIRED"
	case errors.Is(err, ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, ErrPendingExists):
		return "PENDING_EXISTS"
	case errors.Is(err, ErrEmailTaken):
		return "EMAIL_TAKEN"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	}
	return ""
}

package roomrent

import "errors"

var (
	// ErrEngineNotReady is returned when a required collaborator was not wired.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrValidation marks malformed or missing input. Messages wrapping it
	// name the offending field.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateIdentity is returned by Register when the email is taken.
	ErrDuplicateIdentity = errors.New("email already registered")
	// ErrAccountNotFound is returned when no account matches.
	ErrAccountNotFound = errors.New("account not found")
	// ErrVerificationNotFound is returned when no verification record exists.
	ErrVerificationNotFound = errors.New("verification record not found")
	// ErrVerificationTokenMismatch is returned when a verification link
	// carries the wrong token. The record is kept.
	ErrVerificationTokenMismatch = errors.New("verification token mismatch")
	// ErrBadCredential is returned when a password does not match.
	ErrBadCredential = errors.New("incorrect password")
	// ErrNotVerified is returned by Login for unverified accounts.
	ErrNotVerified = errors.New("email not verified")
	// ErrOTPMismatch is returned when a recovery code is wrong, expired or
	// was never issued.
	ErrOTPMismatch = errors.New("recovery code mismatch")
	// ErrOTPAttemptsExceeded is returned once a recovery code has been
	// invalidated after too many mismatches.
	ErrOTPAttemptsExceeded = errors.New("recovery code attempts exceeded")
	// ErrInvalidOrExpiredToken is returned when a reset exchange token is
	// unknown, used or expired.
	ErrInvalidOrExpiredToken = errors.New("reset token invalid or expired")
	// ErrMismatchedConfirmation is returned when a password and its
	// confirmation differ.
	ErrMismatchedConfirmation = errors.New("password confirmation mismatch")
	// ErrMalformedCredential is returned for an Authorization header that is
	// not of the form "Bearer <token>".
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrInvalidCredential is returned when a bearer credential fails
	// verification.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUnauthorized is returned when an operation needs an identity and
	// none was presented.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrDeliveryFailure is returned when a synchronous notification fails.
	ErrDeliveryFailure = errors.New("notification delivery failed")
	// ErrRecoveryRateLimited is returned when recovery traffic for an email
	// or client exceeds the configured window.
	ErrRecoveryRateLimited = errors.New("too many recovery attempts")
	// ErrStoreUnavailable is returned when a backing store call fails.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNotFound is the generic missing-resource error that other packages
	// wrap for their own records.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller is known but may not perform the action.
	ErrForbidden = errors.New("forbidden")
)

// ErrorKind groups errors into the categories callers act on.
type ErrorKind uint8

const (
	// KindInternal covers anything not classified below.
	KindInternal ErrorKind = iota
	// KindValidation is a client input fault.
	KindValidation
	// KindNotFound means the addressed account or record does not exist.
	KindNotFound
	// KindConflict means the request collides with existing state.
	KindConflict
	// KindUnauthorized covers bad, missing or expired credentials and tokens.
	KindUnauthorized
	// KindRateLimited means the caller must wait before retrying.
	KindRateLimited
	// KindDeliveryFailure means a notification could not be sent.
	KindDeliveryFailure
	// KindForbidden means the action is refused for this caller.
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindDeliveryFailure:
		return "delivery_failure"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

type errorClass struct {
	err  error
	kind ErrorKind
	code string
}

var errorClasses = []errorClass{
	{ErrValidation, KindValidation, "validation_error"},
	{ErrMismatchedConfirmation, KindValidation, "mismatched_confirmation"},
	{ErrVerificationTokenMismatch, KindValidation, "token_mismatch"},
	{ErrOTPMismatch, KindValidation, "otp_mismatch"},
	{ErrNotVerified, KindValidation, "not_verified"},
	{ErrInvalidOrExpiredToken, KindValidation, "invalid_or_expired_token"},
	{ErrDuplicateIdentity, KindConflict, "duplicate_identity"},
	{ErrAccountNotFound, KindNotFound, "not_found"},
	{ErrVerificationNotFound, KindNotFound, "record_not_found"},
	{ErrNotFound, KindNotFound, "not_found"},
	{ErrForbidden, KindForbidden, "forbidden"},
	{ErrBadCredential, KindUnauthorized, "bad_credential"},
	{ErrMalformedCredential, KindUnauthorized, "malformed_credential"},
	{ErrInvalidCredential, KindUnauthorized, "invalid_credential"},
	{ErrUnauthorized, KindUnauthorized, "unauthorized"},
	{ErrOTPAttemptsExceeded, KindRateLimited, "otp_attempts_exceeded"},
	{ErrRecoveryRateLimited, KindRateLimited, "rate_limited"},
	{ErrDeliveryFailure, KindDeliveryFailure, "delivery_failure"},
}

func classify(err error) (errorClass, bool) {
	if err == nil {
		return errorClass{}, false
	}
	for _, c := range errorClasses {
		if errors.Is(err, c.err) {
			return c, true
		}
	}
	return errorClass{}, false
}

// KindOf classifies err. Unknown errors, including store failures, are
// KindInternal.
func KindOf(err error) ErrorKind {
	c, ok := classify(err)
	if !ok {
		return KindInternal
	}
	return c.kind
}

// CodeOf returns a stable snake_case code for err, suitable for API
// payloads. Unknown errors map to "internal_error".
func CodeOf(err error) string {
	c, ok := classify(err)
	if !ok {
		return "internal_error"
	}
	return c.code
}

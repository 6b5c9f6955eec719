// Package limiters provides redis fixed-window throttles for the account
// recovery endpoints.
//
// [RecoveryLimiter] counts OTP requests, OTP verifications and verification
// link resends per email and per client IP. It only counts; the calling flow
// decides what a limit hit means for the caller. All methods are nil-safe.
package limiters

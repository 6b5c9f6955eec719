// Package roomrent is the authentication core of the roomrent marketplace
// backend: bearer credential checks, registration with email verification,
// login, OTP password recovery and password changes.
//
// [Engine] is built with [New] and [Builder.Build] and is safe for concurrent
// use. Accounts live behind [AccountStore] (MongoDB in production, see
// store/mongostore); reset exchange tokens and recovery throttles live in
// redis; email goes through a [Notifier] on a bounded background queue.
//
// # Recovery
//
// Recovery moves an account through NoRequest, OtpIssued, OtpVerified and
// Reset. [Engine.RequestRecovery] stores the hash of a short numeric code on
// the account and emails the code. [Engine.VerifyRecovery] trades a matching
// code for a single-use reset token held in redis with a TTL.
// [Engine.ResetPassword] consumes that token exactly once.
//
// Errors are sentinels; [KindOf] and [CodeOf] classify them for transports.
//
// # What this package must NOT do
//
//   - Store OTPs, reset tokens or passwords in clear.
//   - Reveal whether an email is registered from RequestRecovery.
//   - Hit the account store from [Engine.Authenticate].
package roomrent

// Package middleware adapts the roomrent bearer gate to net/http.
//
// [Gate] inspects the Authorization header and attaches the verified
// identity to the request context; [RequireAccount] turns anonymous requests
// away on protected routes. Handlers read the caller with
// [AccountIDFromContext].
//
// # What this package must NOT do
//
//   - Parse or sign credentials itself (delegates to Engine.Authenticate).
//   - Touch the account store.
//   - Make authorization decisions beyond pass/reject.
package middleware

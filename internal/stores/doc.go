// Package stores provides the redis-backed record store for password reset
// exchange tokens.
//
// Each record is versioned and binary-encoded, stored with a TTL, and keyed
// by a digest of the token. Consume uses WATCH/MULTI optimistic transactions
// with bounded retries so a token can be redeemed at most once. Expiry is
// also checked lazily on every read, independent of the redis TTL.
//
// This package owns persistence and concurrency control only. It does not
// generate tokens or decide what a redeemed token authorizes.
package stores

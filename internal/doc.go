// Package internal holds the random code and token generators used by the
// auth flows.
//
// # Sub-packages
//
//   - config: process configuration (viper, .env)
//   - dispatch: bounded async queue for audit events and mail
//   - flows: flow orchestrators behind every Engine operation
//   - limiters: redis fixed-window throttles for recovery and resend
//   - logging: zap logger construction
//   - stores: redis exchange-token store
package internal

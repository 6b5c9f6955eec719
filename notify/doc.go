// Package notify provides roomrent.Notifier implementations: an SMTP
// sender, a Brevo HTTP API client and a logging sender for development.
package notify

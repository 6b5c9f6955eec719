package flows

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
)

// AccountRecord is the subset of an account the flows read.
type AccountRecord struct {
	ID                string
	Email             string
	Name              string
	PasswordHash      string
	Verified          bool
	RecoveryCode      string
	RecoveryExpiresAt time.Time
	RecoveryAttempts  int
}

// AuditFunc emits one audit event. The metadata builder runs only when audit
// is enabled.
type AuditFunc func(ctx context.Context, event string, success bool, accountID string, err error, metadata func() map[string]string)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a single bare address.
func ValidEmail(email string) bool {
	if email == "" || len(email) > 320 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && addr.Name == ""
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func noopAudit(context.Context, string, bool, string, error, func() map[string]string) {}

func noopMetric(int) {}

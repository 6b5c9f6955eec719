package flows

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
)

type VerificationMetrics struct {
	VerificationSuccess int
	VerificationFailure int
}

type VerificationEvents struct {
	VerificationRequest string
	VerificationConfirm string
}

type VerificationErrors struct {
	EngineNotReady       error
	Validation           error
	VerificationNotFound error
	TokenMismatch        error
	AccountNotFound      error
	RateLimited          error
}

type VerificationDeps struct {
	ClientIPFromContext func(context.Context) string

	FindVerification     func(ctx context.Context, accountID string) (string, error)
	FindAccountByID      func(context.Context, string) (AccountRecord, error)
	FindAccountByEmail   func(context.Context, string) (AccountRecord, error)
	MarkVerified         func(ctx context.Context, accountID string) error
	DeleteVerification   func(ctx context.Context, accountID string) error
	NewVerificationToken func(string) (string, error)
	SaveVerification     func(ctx context.Context, accountID, token string) error
	SendVerification     func(ctx context.Context, account AccountRecord, token string)
	SendVerified         func(ctx context.Context, account AccountRecord)

	CheckLimiter    func(ctx context.Context, email, ip string) error
	MapLimiterError func(error) error
	MapStoreError   func(error) error

	MetricInc     func(int)
	EmitAudit     AuditFunc
	EmitRateLimit func(context.Context, string, func() map[string]string)

	Metrics VerificationMetrics
	Events  VerificationEvents
	Errors  VerificationErrors
}

// RunConfirmVerification marks the account verified when token matches its
// live verification record. A mismatched token leaves the record in place.
func RunConfirmVerification(ctx context.Context, accountID, token string, deps VerificationDeps) error {
	normalizeVerificationDeps(&deps)

	if deps.FindVerification == nil || deps.MarkVerified == nil || deps.DeleteVerification == nil {
		return deps.Errors.EngineNotReady
	}
	if accountID == "" || token == "" {
		return fmt.Errorf("%w: account id and token are required", deps.Errors.Validation)
	}

	stored, err := deps.FindVerification(ctx, accountID)
	if err != nil {
		mapped := deps.MapStoreError(err)
		deps.MetricInc(deps.Metrics.VerificationFailure)
		deps.EmitAudit(ctx, deps.Events.VerificationConfirm, false, accountID, mapped, nil)
		return mapped
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		deps.MetricInc(deps.Metrics.VerificationFailure)
		deps.EmitAudit(ctx, deps.Events.VerificationConfirm, false, accountID, deps.Errors.TokenMismatch, nil)
		return deps.Errors.TokenMismatch
	}

	if err := deps.MarkVerified(ctx, accountID); err != nil {
		return deps.MapStoreError(err)
	}
	if err := deps.DeleteVerification(ctx, accountID); err != nil && !errors.Is(err, deps.Errors.VerificationNotFound) {
		return deps.MapStoreError(err)
	}

	if deps.FindAccountByID != nil {
		if account, err := deps.FindAccountByID(ctx, accountID); err == nil {
			deps.SendVerified(ctx, account)
		}
	}

	deps.MetricInc(deps.Metrics.VerificationSuccess)
	deps.EmitAudit(ctx, deps.Events.VerificationConfirm, true, accountID, nil, nil)
	return nil
}

// RunResendVerification issues a fresh verification link for an unverified
// account. Unknown and already verified emails succeed without sending.
func RunResendVerification(ctx context.Context, email string, deps VerificationDeps) error {
	normalizeVerificationDeps(&deps)

	if deps.FindAccountByEmail == nil || deps.NewVerificationToken == nil || deps.SaveVerification == nil {
		return deps.Errors.EngineNotReady
	}

	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return fmt.Errorf("%w: email is not a valid address", deps.Errors.Validation)
	}

	if deps.CheckLimiter != nil {
		if err := deps.CheckLimiter(ctx, email, deps.ClientIPFromContext(ctx)); err != nil {
			mapped := deps.MapLimiterError(err)
			if errors.Is(mapped, deps.Errors.RateLimited) {
				deps.EmitRateLimit(ctx, "verification_resend", nil)
			}
			return mapped
		}
	}

	account, err := deps.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, deps.Errors.AccountNotFound) {
			deps.EmitAudit(ctx, deps.Events.VerificationRequest, true, "", nil, func() map[string]string {
				return map[string]string{"enumeration_safe": "true"}
			})
			return nil
		}
		return deps.MapStoreError(err)
	}
	if account.Verified {
		return nil
	}

	token, err := deps.NewVerificationToken(account.ID)
	if err != nil {
		return err
	}
	if err := deps.SaveVerification(ctx, account.ID, token); err != nil {
		return deps.MapStoreError(err)
	}
	deps.SendVerification(ctx, account, token)

	deps.EmitAudit(ctx, deps.Events.VerificationRequest, true, account.ID, nil, nil)
	return nil
}

func normalizeVerificationDeps(deps *VerificationDeps) {
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.SendVerification == nil {
		deps.SendVerification = func(context.Context, AccountRecord, string) {}
	}
	if deps.SendVerified == nil {
		deps.SendVerified = func(context.Context, AccountRecord) {}
	}
	if deps.MapLimiterError == nil {
		deps.MapLimiterError = func(err error) error { return err }
	}
	if deps.MapStoreError == nil {
		deps.MapStoreError = func(err error) error { return err }
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.EmitRateLimit == nil {
		deps.EmitRateLimit = func(context.Context, string, func() map[string]string) {}
	}
}

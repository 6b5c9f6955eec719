package roomrent

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/roomrent/internal"
	internalflows "github.com/MrEthical07/roomrent/internal/flows"
	"github.com/MrEthical07/roomrent/internal/stores"
)

// RequestRecovery emails a fresh recovery code to email, replacing any
// earlier one. Unknown emails get the same nil result and no email. A send
// failure returns ErrDeliveryFailure.
func (e *Engine) RequestRecovery(ctx context.Context, email string) error {
	return internalflows.RunRequestRecovery(ctx, email, e.recoveryFlowDeps())
}

// VerifyRecovery exchanges a valid recovery code for a single-use reset
// token.
func (e *Engine) VerifyRecovery(ctx context.Context, email, otp string) (string, error) {
	return internalflows.RunVerifyRecovery(ctx, email, otp, e.recoveryFlowDeps())
}

// ResetPassword consumes a reset token and sets a new password. A token
// works once; later calls return ErrInvalidOrExpiredToken.
func (e *Engine) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	return internalflows.RunResetPassword(ctx, token, newPassword, confirmPassword, e.recoveryFlowDeps())
}

func (e *Engine) recoveryFlowDeps() internalflows.RecoveryDeps {
	var cfg Config
	if e != nil {
		cfg = e.config
	}

	deps := internalflows.RecoveryDeps{
		OTPDigits:           cfg.Recovery.OTPDigits,
		OTPTTL:              cfg.Recovery.OTPTTL,
		MaxOTPAttempts:      cfg.Recovery.MaxOTPAttempts,
		ExchangeTTL:         cfg.Recovery.ExchangeTTL,
		MinPasswordLength:   cfg.Password.MinLength,
		ClientIPFromContext: clientIPFromContext,
		MapLimiterError:     mapLimiterError,
		GenerateOTP:         internal.NewOTP,
		HashCode:            internal.HashCode,
		NewExchangeToken:    internal.NewExchangeToken,
		IsExchangeNotFound: func(err error) bool {
			return errors.Is(err, stores.ErrExchangeNotFound)
		},
		SleepEnumerationDelay: func(ctx context.Context) error {
			return sleepEnumerationDelay(ctx, cfg.Recovery.EnumerationDelay)
		},
		Metrics: internalflows.RecoveryMetrics{
			RecoveryRequest:         int(MetricRecoveryRequest),
			RecoveryDeliveryFailure: int(MetricRecoveryDeliveryFailure),
			OTPVerifySuccess:        int(MetricOTPVerifySuccess),
			OTPVerifyFailure:        int(MetricOTPVerifyFailure),
			OTPLockout:              int(MetricOTPLockout),
			PasswordResetSuccess:    int(MetricPasswordResetSuccess),
			PasswordResetFailure:    int(MetricPasswordResetFailure),
		},
		Events: internalflows.RecoveryEvents{
			RecoveryRequest:     auditEventRecoveryRequest,
			RecoveryVerify:      auditEventRecoveryVerify,
			RecoveryLockout:     auditEventRecoveryLockout,
			PasswordReset:       auditEventPasswordReset,
			PasswordResetReplay: auditEventPasswordResetReplay,
		},
		Errors: internalflows.RecoveryErrors{
			EngineNotReady:         ErrEngineNotReady,
			Validation:             ErrValidation,
			AccountNotFound:        ErrAccountNotFound,
			OTPMismatch:            ErrOTPMismatch,
			OTPAttemptsExceeded:    ErrOTPAttemptsExceeded,
			InvalidOrExpiredToken:  ErrInvalidOrExpiredToken,
			MismatchedConfirmation: ErrMismatchedConfirmation,
			DeliveryFailure:        ErrDeliveryFailure,
			RateLimited:            ErrRecoveryRateLimited,
		},
	}
	if e == nil {
		return deps
	}

	deps.Now = e.now
	deps.MapStoreError = e.mapStoreError
	deps.MetricInc = func(id int) { e.metricInc(MetricID(id)) }
	deps.EmitAudit = e.emitAudit
	deps.EmitRateLimit = e.emitRateLimit
	deps.SendRecoveryCode = e.sendRecoveryCode

	if e.recoveryLimiter != nil {
		deps.CheckRequestLimiter = e.recoveryLimiter.CheckRequest
		deps.CheckVerifyLimiter = e.recoveryLimiter.CheckVerify
	}
	if e.passwordHash != nil {
		deps.HashPassword = e.passwordHash.Hash
	}
	if e.accounts != nil {
		deps.FindAccountByEmail = e.findFlowAccountByEmail
		deps.UpdatePasswordHash = e.updatePasswordHash
		deps.IncrementRecoveryAttempts = e.accounts.IncrementRecoveryAttempts
		deps.StoreRecoveryCode = func(ctx context.Context, accountID, codeHash string, expiresAt time.Time) error {
			zero := 0
			return e.accounts.UpdateAccount(ctx, accountID, AccountUpdate{
				RecoveryCode:      &codeHash,
				RecoveryExpiresAt: &expiresAt,
				RecoveryAttempts:  &zero,
			})
		}
		deps.InvalidateRecoveryCode = func(ctx context.Context, accountID string) error {
			empty := ""
			return e.accounts.UpdateAccount(ctx, accountID, AccountUpdate{RecoveryCode: &empty})
		}
		deps.ClearRecovery = func(ctx context.Context, accountID string) error {
			return e.accounts.UpdateAccount(ctx, accountID, AccountUpdate{ClearRecovery: true})
		}
	}
	if e.exchangeStore != nil {
		deps.SaveExchangeToken = func(ctx context.Context, token, email string, ttl time.Duration) error {
			return e.exchangeStore.Save(ctx, token, &stores.ExchangeRecord{
				Email:     email,
				ExpiresAt: e.now().Add(ttl).Unix(),
			}, ttl)
		}
		// deps are built per call, so consumed belongs to a single reset.
		var consumed *stores.ExchangeRecord
		deps.ConsumeExchangeToken = func(ctx context.Context, token string) (string, error) {
			rec, err := e.exchangeStore.Consume(ctx, token)
			if err != nil {
				return "", err
			}
			consumed = rec
			return rec.Email, nil
		}
		deps.RestoreExchangeToken = func(ctx context.Context, token, _ string) error {
			if consumed == nil {
				return nil
			}
			return e.exchangeStore.Restore(ctx, token, consumed)
		}
	}
	return deps
}

func sleepEnumerationDelay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

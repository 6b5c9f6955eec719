package roomrent

import (
	"context"

	"github.com/MrEthical07/roomrent/internal"
	internalflows "github.com/MrEthical07/roomrent/internal/flows"
)

// ConfirmVerification marks accountID verified when token matches its
// verification record. A wrong token returns ErrVerificationTokenMismatch and
// keeps the record.
func (e *Engine) ConfirmVerification(ctx context.Context, accountID, token string) error {
	return internalflows.RunConfirmVerification(ctx, accountID, token, e.verificationFlowDeps())
}

// ResendVerification issues a new verification link. It succeeds silently
// for unknown or already verified emails.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
	return internalflows.RunResendVerification(ctx, email, e.verificationFlowDeps())
}

func (e *Engine) saveVerification(ctx context.Context, accountID, token string) error {
	return e.accounts.InsertVerification(ctx, VerificationRecord{
		AccountID: accountID,
		Token:     token,
		CreatedAt: e.now().UTC(),
	})
}

func (e *Engine) verificationFlowDeps() internalflows.VerificationDeps {
	deps := internalflows.VerificationDeps{
		ClientIPFromContext:  clientIPFromContext,
		NewVerificationToken: internal.NewVerificationToken,
		MapLimiterError:      mapLimiterError,
		Metrics: internalflows.VerificationMetrics{
			VerificationSuccess: int(MetricVerificationSuccess),
			VerificationFailure: int(MetricVerificationFailure),
		},
		Events: internalflows.VerificationEvents{
			VerificationRequest: auditEventVerificationRequest,
			VerificationConfirm: auditEventVerificationConfirm,
		},
		Errors: internalflows.VerificationErrors{
			EngineNotReady:       ErrEngineNotReady,
			Validation:           ErrValidation,
			VerificationNotFound: ErrVerificationNotFound,
			TokenMismatch:        ErrVerificationTokenMismatch,
			AccountNotFound:      ErrAccountNotFound,
			RateLimited:          ErrRecoveryRateLimited,
		},
	}
	if e == nil {
		return deps
	}

	deps.MapStoreError = e.mapStoreError
	deps.MetricInc = func(id int) { e.metricInc(MetricID(id)) }
	deps.EmitAudit = e.emitAudit
	deps.EmitRateLimit = e.emitRateLimit
	deps.SendVerification = e.sendVerification
	deps.SendVerified = e.sendVerified
	if e.recoveryLimiter != nil {
		deps.CheckLimiter = e.recoveryLimiter.CheckResend
	}
	if e.accounts != nil {
		deps.FindVerification = func(ctx context.Context, accountID string) (string, error) {
			rec, err := e.accounts.FindVerificationByAccount(ctx, accountID)
			if err != nil {
				return "", err
			}
			return rec.Token, nil
		}
		deps.FindAccountByID = e.findFlowAccountByID
		deps.FindAccountByEmail = e.findFlowAccountByEmail
		deps.MarkVerified = func(ctx context.Context, accountID string) error {
			verified := true
			return e.accounts.UpdateAccount(ctx, accountID, AccountUpdate{Verified: &verified})
		}
		deps.DeleteVerification = e.accounts.DeleteVerification
		deps.SaveVerification = e.saveVerification
	}
	return deps
}

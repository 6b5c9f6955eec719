package roomrent

import (
	"context"

	internalflows "github.com/MrEthical07/roomrent/internal/flows"
)

// ChangePassword sets a new password for an authenticated account after
// checking oldPassword. A wrong old password returns ErrBadCredential and
// changes nothing.
func (e *Engine) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword, confirmPassword string) error {
	if e == nil || e.accounts == nil || e.passwordHash == nil {
		return ErrEngineNotReady
	}

	return internalflows.RunChangePassword(ctx, accountID, oldPassword, newPassword, confirmPassword, internalflows.ChangePasswordDeps{
		MinPasswordLength:  e.config.Password.MinLength,
		FindAccountByID:    e.findFlowAccountByID,
		VerifyPassword:     e.verifyPassword,
		HashPassword:       e.passwordHash.Hash,
		UpdatePasswordHash: e.updatePasswordHash,
		MapStoreError:      e.mapStoreError,
		MetricInc:          func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit:          e.emitAudit,
		Metrics: internalflows.ChangePasswordMetrics{
			PasswordChangeSuccess: int(MetricPasswordChangeSuccess),
			PasswordChangeFailure: int(MetricPasswordChangeFailure),
		},
		Events: internalflows.ChangePasswordEvents{
			PasswordChange: auditEventPasswordChange,
		},
		Errors: internalflows.ChangePasswordErrors{
			EngineNotReady:         ErrEngineNotReady,
			Validation:             ErrValidation,
			Unauthorized:           ErrUnauthorized,
			BadCredential:          ErrBadCredential,
			MismatchedConfirmation: ErrMismatchedConfirmation,
		},
	})
}

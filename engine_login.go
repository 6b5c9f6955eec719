package roomrent

import (
	"context"

	internalflows "github.com/MrEthical07/roomrent/internal/flows"
)

// Login verifies email and password and issues a bearer credential.
//
// Errors, in check order: ErrAccountNotFound, ErrBadCredential,
// ErrNotVerified. A legacy bcrypt hash is re-encoded with Argon2id on success
// when Password.UpgradeOnLogin is set.
func (e *Engine) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if e == nil || e.accounts == nil || e.passwordHash == nil || e.jwtManager == nil {
		return LoginResult{}, ErrEngineNotReady
	}

	res, err := internalflows.RunLogin(ctx, email, password, internalflows.LoginDeps{
		UpgradeOnLogin:     e.config.Password.UpgradeOnLogin,
		FindAccountByEmail: e.findFlowAccountByEmail,
		VerifyPassword:     e.verifyPassword,
		NeedsUpgrade:       e.needsUpgrade,
		HashPassword:       e.passwordHash.Hash,
		UpdatePasswordHash: e.updatePasswordHash,
		IssueCredential:    e.jwtManager.CreateAccess,
		MapStoreError:      e.mapStoreError,
		MetricInc:          func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit:          e.emitAudit,
		Metrics: internalflows.LoginMetrics{
			LoginSuccess:     int(MetricLoginSuccess),
			LoginFailure:     int(MetricLoginFailure),
			LoginUnverified:  int(MetricLoginUnverified),
			PasswordUpgraded: int(MetricPasswordUpgraded),
		},
		Events: internalflows.LoginEvents{
			LoginSuccess: auditEventLoginSuccess,
			LoginFailure: auditEventLoginFailure,
		},
		Errors: internalflows.LoginErrors{
			EngineNotReady:  ErrEngineNotReady,
			Validation:      ErrValidation,
			AccountNotFound: ErrAccountNotFound,
			BadCredential:   ErrBadCredential,
			NotVerified:     ErrNotVerified,
		},
	})
	if err != nil {
		return LoginResult{}, err
	}

	profile, err := e.Profile(ctx, res.Account.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Credential: res.Credential, Profile: profile}, nil
}

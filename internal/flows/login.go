package flows

import (
	"context"
	"errors"
	"fmt"
)

type LoginMetrics struct {
	LoginSuccess     int
	LoginFailure     int
	LoginUnverified  int
	PasswordUpgraded int
}

type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
}

type LoginErrors struct {
	EngineNotReady  error
	Validation      error
	AccountNotFound error
	BadCredential   error
	NotVerified     error
}

type LoginDeps struct {
	UpgradeOnLogin bool

	FindAccountByEmail func(context.Context, string) (AccountRecord, error)
	VerifyPassword     func(password, hash string) (bool, error)
	NeedsUpgrade       func(hash string) bool
	HashPassword       func(string) (string, error)
	UpdatePasswordHash func(ctx context.Context, accountID, hash string) error
	IssueCredential    func(accountID string) (string, error)
	MapStoreError      func(error) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

type LoginResult struct {
	Credential string
	Account    AccountRecord
}

// RunLogin checks, in order, that the account exists, the password matches
// and the email is verified, then issues a bearer credential.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (LoginResult, error) {
	normalizeLoginDeps(&deps)

	if deps.FindAccountByEmail == nil || deps.VerifyPassword == nil || deps.IssueCredential == nil {
		return LoginResult{}, deps.Errors.EngineNotReady
	}

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", deps.Errors.Validation)
	}

	account, err := deps.FindAccountByEmail(ctx, email)
	if err != nil {
		mapped := deps.MapStoreError(err)
		if errors.Is(mapped, deps.Errors.AccountNotFound) {
			deps.MetricInc(deps.Metrics.LoginFailure)
			deps.EmitAudit(ctx, deps.Events.LoginFailure, false, "", mapped, nil)
		}
		return LoginResult{}, mapped
	}

	ok, err := deps.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, account.ID, deps.Errors.BadCredential, nil)
		return LoginResult{}, deps.Errors.BadCredential
	}

	if !account.Verified {
		deps.MetricInc(deps.Metrics.LoginUnverified)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, account.ID, deps.Errors.NotVerified, nil)
		return LoginResult{}, deps.Errors.NotVerified
	}

	if deps.UpgradeOnLogin && deps.NeedsUpgrade != nil && deps.NeedsUpgrade(account.PasswordHash) &&
		deps.HashPassword != nil && deps.UpdatePasswordHash != nil {
		// Best effort: a failed upgrade keeps the old hash usable.
		if hash, err := deps.HashPassword(password); err == nil {
			if err := deps.UpdatePasswordHash(ctx, account.ID, hash); err == nil {
				account.PasswordHash = hash
				deps.MetricInc(deps.Metrics.PasswordUpgraded)
			}
		}
	}

	credential, err := deps.IssueCredential(account.ID)
	if err != nil {
		return LoginResult{}, err
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, account.ID, nil, nil)
	return LoginResult{Credential: credential, Account: account}, nil
}

func normalizeLoginDeps(deps *LoginDeps) {
	if deps.MapStoreError == nil {
		deps.MapStoreError = func(err error) error { return err }
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
}

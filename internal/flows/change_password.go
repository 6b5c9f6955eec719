package flows

import (
	"context"
	"fmt"
)

type ChangePasswordMetrics struct {
	PasswordChangeSuccess int
	PasswordChangeFailure int
}

type ChangePasswordEvents struct {
	PasswordChange string
}

type ChangePasswordErrors struct {
	EngineNotReady         error
	Validation             error
	Unauthorized           error
	BadCredential          error
	MismatchedConfirmation error
}

type ChangePasswordDeps struct {
	MinPasswordLength int

	FindAccountByID    func(context.Context, string) (AccountRecord, error)
	VerifyPassword     func(password, hash string) (bool, error)
	HashPassword       func(string) (string, error)
	UpdatePasswordHash func(ctx context.Context, accountID, hash string) error
	MapStoreError      func(error) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics ChangePasswordMetrics
	Events  ChangePasswordEvents
	Errors  ChangePasswordErrors
}

// RunChangePassword replaces the password of an authenticated account after
// checking the old one. Nothing is written unless every check passes.
func RunChangePassword(ctx context.Context, accountID, oldPassword, newPassword, confirmPassword string, deps ChangePasswordDeps) error {
	normalizeChangePasswordDeps(&deps)

	if deps.FindAccountByID == nil || deps.VerifyPassword == nil || deps.HashPassword == nil || deps.UpdatePasswordHash == nil {
		return deps.Errors.EngineNotReady
	}
	if accountID == "" {
		return deps.Errors.Unauthorized
	}
	if oldPassword == "" || newPassword == "" || confirmPassword == "" {
		return fmt.Errorf("%w: old password, password and confirmation are required", deps.Errors.Validation)
	}

	account, err := deps.FindAccountByID(ctx, accountID)
	if err != nil {
		return deps.MapStoreError(err)
	}

	ok, err := deps.VerifyPassword(oldPassword, account.PasswordHash)
	if err != nil {
		return err
	}
	fail := func(err error) error {
		deps.MetricInc(deps.Metrics.PasswordChangeFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordChange, false, accountID, err, nil)
		return err
	}
	if !ok {
		return fail(deps.Errors.BadCredential)
	}
	if newPassword != confirmPassword {
		return fail(deps.Errors.MismatchedConfirmation)
	}
	if len(newPassword) < deps.MinPasswordLength {
		return fail(fmt.Errorf("%w: password must be at least %d characters", deps.Errors.Validation, deps.MinPasswordLength))
	}

	hash, err := deps.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := deps.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		return deps.MapStoreError(err)
	}

	deps.MetricInc(deps.Metrics.PasswordChangeSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordChange, true, accountID, nil, nil)
	return nil
}

func normalizeChangePasswordDeps(deps *ChangePasswordDeps) {
	if deps.MinPasswordLength <= 0 {
		deps.MinPasswordLength = 1
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
}

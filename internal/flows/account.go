package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type RegisterRequest struct {
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
	Address         string
	MobileNo        string
	ProfilePicture  string
}

// NewAccount is what RunRegister hands to the store.
type NewAccount struct {
	Email          string
	Name           string
	Address        string
	MobileNo       string
	ProfilePicture string
	PasswordHash   string
}

type RegisterMetrics struct {
	RegisterSuccess   int
	RegisterDuplicate int
}

type RegisterEvents struct {
	RegisterSuccess string
	RegisterFailure string
}

type RegisterErrors struct {
	EngineNotReady         error
	Validation             error
	Duplicate              error
	AccountNotFound        error
	MismatchedConfirmation error
}

type RegisterDeps struct {
	MinPasswordLength int

	FindAccountByEmail   func(context.Context, string) (AccountRecord, error)
	HashPassword         func(string) (string, error)
	InsertAccount        func(context.Context, NewAccount) (AccountRecord, error)
	NewVerificationToken func(string) (string, error)
	SaveVerification     func(ctx context.Context, accountID, token string) error
	SendVerification     func(ctx context.Context, account AccountRecord, token string)
	MapStoreError        func(error) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics RegisterMetrics
	Events  RegisterEvents
	Errors  RegisterErrors
}

// RunRegister validates req, creates an unverified account and queues its
// verification link.
func RunRegister(ctx context.Context, req RegisterRequest, deps RegisterDeps) (AccountRecord, error) {
	normalizeRegisterDeps(&deps)

	if deps.FindAccountByEmail == nil || deps.HashPassword == nil || deps.InsertAccount == nil ||
		deps.NewVerificationToken == nil || deps.SaveVerification == nil {
		return AccountRecord{}, deps.Errors.EngineNotReady
	}

	req.Email = NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRegisterRequest(req, deps); err != nil {
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", err, func() map[string]string {
			return map[string]string{"reason": "invalid_input"}
		})
		return AccountRecord{}, err
	}

	_, err := deps.FindAccountByEmail(ctx, req.Email)
	switch {
	case err == nil:
		deps.MetricInc(deps.Metrics.RegisterDuplicate)
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", deps.Errors.Duplicate, nil)
		return AccountRecord{}, deps.Errors.Duplicate
	case errors.Is(err, deps.Errors.AccountNotFound):
	default:
		return AccountRecord{}, deps.MapStoreError(err)
	}

	hash, err := deps.HashPassword(req.Password)
	if err != nil {
		return AccountRecord{}, err
	}

	account, err := deps.InsertAccount(ctx, NewAccount{
		Email:          req.Email,
		Name:           req.Name,
		Address:        strings.TrimSpace(req.Address),
		MobileNo:       strings.TrimSpace(req.MobileNo),
		ProfilePicture: req.ProfilePicture,
		PasswordHash:   hash,
	})
	if err != nil {
		mapped := deps.MapStoreError(err)
		if errors.Is(mapped, deps.Errors.Duplicate) {
			deps.MetricInc(deps.Metrics.RegisterDuplicate)
		}
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, "", mapped, nil)
		return AccountRecord{}, mapped
	}

	token, err := deps.NewVerificationToken(account.ID)
	if err != nil {
		return AccountRecord{}, err
	}
	// The account stays unverified without a record. Resending the
	// verification link creates a fresh record for it.
	if err := deps.SaveVerification(ctx, account.ID, token); err != nil {
		mapped := deps.MapStoreError(err)
		deps.EmitAudit(ctx, deps.Events.RegisterFailure, false, account.ID, mapped, func() map[string]string {
			return map[string]string{"reason": "verification_not_saved"}
		})
		return AccountRecord{}, mapped
	}
	deps.SendVerification(ctx, account, token)

	deps.MetricInc(deps.Metrics.RegisterSuccess)
	deps.EmitAudit(ctx, deps.Events.RegisterSuccess, true, account.ID, nil, nil)
	return account, nil
}

func validateRegisterRequest(req RegisterRequest, deps RegisterDeps) error {
	switch {
	case req.Email == "":
		return fmt.Errorf("%w: email is required", deps.Errors.Validation)
	case req.Password == "":
		return fmt.Errorf("%w: password is required", deps.Errors.Validation)
	case req.Name == "":
		return fmt.Errorf("%w: name is required", deps.Errors.Validation)
	case req.ConfirmPassword == "":
		return fmt.Errorf("%w: password confirmation is required", deps.Errors.Validation)
	case strings.TrimSpace(req.Address) == "":
		return fmt.Errorf("%w: address is required", deps.Errors.Validation)
	case strings.TrimSpace(req.MobileNo) == "":
		return fmt.Errorf("%w: mobile number is required", deps.Errors.Validation)
	case !ValidEmail(req.Email):
		return fmt.Errorf("%w: email is not a valid address", deps.Errors.Validation)
	case len(req.Password) < deps.MinPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", deps.Errors.Validation, deps.MinPasswordLength)
	case req.ConfirmPassword != req.Password:
		return deps.Errors.MismatchedConfirmation
	}
	return nil
}

func normalizeRegisterDeps(deps *RegisterDeps) {
	if deps.MinPasswordLength <= 0 {
		deps.MinPasswordLength = 1
	}
	if deps.SendVerification == nil {
		deps.SendVerification = func(context.Context, AccountRecord, string) {}
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

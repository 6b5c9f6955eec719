package roomrent

import (
	"context"
	"strings"

	"github.com/MrEthical07/roomrent/internal"
	internalflows "github.com/MrEthical07/roomrent/internal/flows"
)

// Register creates an unverified account and queues a verification email.
// A failed email is logged, not returned.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (Profile, error) {
	if e == nil || e.accounts == nil {
		return Profile{}, ErrEngineNotReady
	}
	rec, err := internalflows.RunRegister(ctx, internalflows.RegisterRequest{
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
		Name:            in.Name,
		Address:         in.Address,
		MobileNo:        in.MobileNo,
		ProfilePicture:  in.ProfilePicture,
	}, e.registerFlowDeps())
	if err != nil {
		return Profile{}, err
	}
	return e.Profile(ctx, rec.ID)
}

func (e *Engine) registerFlowDeps() internalflows.RegisterDeps {
	return internalflows.RegisterDeps{
		MinPasswordLength:  e.config.Password.MinLength,
		FindAccountByEmail: e.findFlowAccountByEmail,
		HashPassword:       e.passwordHash.Hash,
		InsertAccount: func(ctx context.Context, na internalflows.NewAccount) (internalflows.AccountRecord, error) {
			now := e.now().UTC()
			a, err := e.accounts.InsertAccount(ctx, Account{
				Email:          na.Email,
				Name:           na.Name,
				Address:        na.Address,
				MobileNo:       na.MobileNo,
				ProfilePicture: na.ProfilePicture,
				PasswordHash:   na.PasswordHash,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
			if err != nil {
				return internalflows.AccountRecord{}, err
			}
			return toFlowAccount(a), nil
		},
		NewVerificationToken: internal.NewVerificationToken,
		SaveVerification:     e.saveVerification,
		SendVerification:     e.sendVerification,
		MapStoreError:        e.mapStoreError,
		MetricInc:            func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit:            e.emitAudit,
		Metrics: internalflows.RegisterMetrics{
			RegisterSuccess:   int(MetricRegisterSuccess),
			RegisterDuplicate: int(MetricRegisterDuplicate),
		},
		Events: internalflows.RegisterEvents{
			RegisterSuccess: auditEventRegisterSuccess,
			RegisterFailure: auditEventRegisterFailure,
		},
		Errors: internalflows.RegisterErrors{
			EngineNotReady:         ErrEngineNotReady,
			Validation:             ErrValidation,
			Duplicate:              ErrDuplicateIdentity,
			AccountNotFound:        ErrAccountNotFound,
			MismatchedConfirmation: ErrMismatchedConfirmation,
		},
	}
}

// Profile returns the public profile of accountID.
func (e *Engine) Profile(ctx context.Context, accountID string) (Profile, error) {
	if e == nil || e.accounts == nil {
		return Profile{}, ErrEngineNotReady
	}
	if accountID == "" {
		return Profile{}, ErrUnauthorized
	}
	a, err := e.accounts.FindAccountByID(ctx, accountID)
	if err != nil {
		return Profile{}, e.mapStoreError(err)
	}
	return a.Profile(), nil
}

// ListAccounts returns every account's public profile.
func (e *Engine) ListAccounts(ctx context.Context) ([]Profile, error) {
	if e == nil || e.accounts == nil {
		return nil, ErrEngineNotReady
	}
	accounts, err := e.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, e.mapStoreError(err)
	}
	out := make([]Profile, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Profile())
	}
	return out, nil
}

// UpdateProfile applies the non-empty fields of upd and returns the updated
// profile. Email and password cannot be changed here.
func (e *Engine) UpdateProfile(ctx context.Context, accountID string, upd ProfileUpdate) (Profile, error) {
	if e == nil || e.accounts == nil {
		return Profile{}, ErrEngineNotReady
	}
	if accountID == "" {
		return Profile{}, ErrUnauthorized
	}

	var update AccountUpdate
	set := func(dst **string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = &v
		}
	}
	set(&update.Name, upd.Name)
	set(&update.Address, upd.Address)
	set(&update.MobileNo, upd.MobileNo)
	set(&update.ProfilePicture, upd.ProfilePicture)

	if update != (AccountUpdate{}) {
		if err := e.accounts.UpdateAccount(ctx, accountID, update); err != nil {
			return Profile{}, e.mapStoreError(err)
		}
		e.emitAudit(ctx, auditEventProfileUpdate, true, accountID, nil, nil)
	}
	return e.Profile(ctx, accountID)
}

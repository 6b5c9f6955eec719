package flows

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"
)

type RecoveryMetrics struct {
	RecoveryRequest         int
	RecoveryDeliveryFailure int
	OTPVerifySuccess        int
	OTPVerifyFailure        int
	OTPLockout              int
	PasswordResetSuccess    int
	PasswordResetFailure    int
}

type RecoveryEvents struct {
	RecoveryRequest     string
	RecoveryVerify      string
	RecoveryLockout     string
	PasswordReset       string
	PasswordResetReplay string
}

type RecoveryErrors struct {
	EngineNotReady         error
	Validation             error
	AccountNotFound        error
	OTPMismatch            error
	OTPAttemptsExceeded    error
	InvalidOrExpiredToken  error
	MismatchedConfirmation error
	DeliveryFailure        error
	RateLimited            error
}

type RecoveryDeps struct {
	OTPDigits         int
	OTPTTL            time.Duration
	MaxOTPAttempts    int
	ExchangeTTL       time.Duration
	MinPasswordLength int

	Now                 func() time.Time
	ClientIPFromContext func(context.Context) string

	CheckRequestLimiter func(ctx context.Context, email, ip string) error
	CheckVerifyLimiter  func(ctx context.Context, email, ip string) error
	MapLimiterError     func(error) error
	MapStoreError       func(error) error

	FindAccountByEmail func(context.Context, string) (AccountRecord, error)
	// StoreRecoveryCode sets the code hash and expiry and zeroes the attempt
	// counter.
	StoreRecoveryCode func(ctx context.Context, accountID, codeHash string, expiresAt time.Time) error
	// InvalidateRecoveryCode drops the code hash but keeps the attempt counter.
	InvalidateRecoveryCode    func(ctx context.Context, accountID string) error
	ClearRecovery             func(ctx context.Context, accountID string) error
	IncrementRecoveryAttempts func(ctx context.Context, accountID string) (int, error)
	UpdatePasswordHash        func(ctx context.Context, accountID, hash string) error

	GenerateOTP           func(int) (string, error)
	HashCode              func(string) string
	SendRecoveryCode      func(ctx context.Context, account AccountRecord, code string) error
	SleepEnumerationDelay func(context.Context) error
	HashPassword          func(string) (string, error)

	NewExchangeToken     func() (string, error)
	SaveExchangeToken    func(ctx context.Context, token, email string, ttl time.Duration) error
	ConsumeExchangeToken func(ctx context.Context, token string) (string, error)
	RestoreExchangeToken func(ctx context.Context, token, email string) error
	IsExchangeNotFound   func(error) bool

	MetricInc     func(int)
	EmitAudit     AuditFunc
	EmitRateLimit func(context.Context, string, func() map[string]string)

	Metrics RecoveryMetrics
	Events  RecoveryEvents
	Errors  RecoveryErrors
}

// RunRequestRecovery issues a recovery code for email and delivers it
// synchronously. Unknown emails get the same success after an enumeration
// delay, and nothing is sent.
func RunRequestRecovery(ctx context.Context, email string, deps RecoveryDeps) error {
	normalizeRecoveryDeps(&deps)

	if deps.FindAccountByEmail == nil || deps.StoreRecoveryCode == nil || deps.GenerateOTP == nil ||
		deps.HashCode == nil || deps.SendRecoveryCode == nil {
		return deps.Errors.EngineNotReady
	}

	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return fmt.Errorf("%w: email is not a valid address", deps.Errors.Validation)
	}

	if err := checkRecoveryLimiter(ctx, deps.CheckRequestLimiter, "recovery_request", email, deps); err != nil {
		deps.EmitAudit(ctx, deps.Events.RecoveryRequest, false, "", err, nil)
		return err
	}

	account, err := deps.FindAccountByEmail(ctx, email)
	if err != nil {
		if isContextErr(err) {
			return err
		}
		if !errors.Is(err, deps.Errors.AccountNotFound) {
			return deps.MapStoreError(err)
		}
		if sleepErr := deps.SleepEnumerationDelay(ctx); sleepErr != nil {
			return sleepErr
		}
		deps.MetricInc(deps.Metrics.RecoveryRequest)
		deps.EmitAudit(ctx, deps.Events.RecoveryRequest, true, "", nil, func() map[string]string {
			return map[string]string{"enumeration_safe": "true"}
		})
		return nil
	}

	code, err := deps.GenerateOTP(deps.OTPDigits)
	if err != nil {
		return err
	}
	expiresAt := deps.Now().Add(deps.OTPTTL)
	if err := deps.StoreRecoveryCode(ctx, account.ID, deps.HashCode(code), expiresAt); err != nil {
		mapped := deps.MapStoreError(err)
		deps.EmitAudit(ctx, deps.Events.RecoveryRequest, false, account.ID, mapped, nil)
		return mapped
	}

	if err := deps.SendRecoveryCode(ctx, account, code); err != nil {
		if deps.ClearRecovery != nil {
			_ = deps.ClearRecovery(ctx, account.ID)
		}
		deps.MetricInc(deps.Metrics.RecoveryDeliveryFailure)
		deps.EmitAudit(ctx, deps.Events.RecoveryRequest, false, account.ID, deps.Errors.DeliveryFailure, nil)
		return fmt.Errorf("%w: %v", deps.Errors.DeliveryFailure, err)
	}

	deps.MetricInc(deps.Metrics.RecoveryRequest)
	deps.EmitAudit(ctx, deps.Events.RecoveryRequest, true, account.ID, nil, nil)
	return nil
}

// RunVerifyRecovery exchanges a live recovery code for a single-use reset
// token. Each mismatch counts against the account; reaching MaxOTPAttempts
// invalidates the code until a new one is requested.
func RunVerifyRecovery(ctx context.Context, email, otp string, deps RecoveryDeps) (string, error) {
	normalizeRecoveryDeps(&deps)

	if deps.FindAccountByEmail == nil || deps.HashCode == nil || deps.IncrementRecoveryAttempts == nil ||
		deps.InvalidateRecoveryCode == nil || deps.ClearRecovery == nil ||
		deps.NewExchangeToken == nil || deps.SaveExchangeToken == nil {
		return "", deps.Errors.EngineNotReady
	}

	email = NormalizeEmail(email)
	if !ValidEmail(email) || otp == "" {
		return "", fmt.Errorf("%w: email and otp are required", deps.Errors.Validation)
	}

	if err := checkRecoveryLimiter(ctx, deps.CheckVerifyLimiter, "recovery_verify", email, deps); err != nil {
		deps.EmitAudit(ctx, deps.Events.RecoveryVerify, false, "", err, nil)
		return "", err
	}

	account, err := deps.FindAccountByEmail(ctx, email)
	if err != nil {
		return "", deps.MapStoreError(err)
	}

	if account.RecoveryAttempts >= deps.MaxOTPAttempts {
		if account.RecoveryCode != "" {
			_ = deps.InvalidateRecoveryCode(ctx, account.ID)
		}
		deps.MetricInc(deps.Metrics.OTPVerifyFailure)
		deps.EmitAudit(ctx, deps.Events.RecoveryVerify, false, account.ID, deps.Errors.OTPAttemptsExceeded, nil)
		return "", deps.Errors.OTPAttemptsExceeded
	}

	if account.RecoveryCode == "" {
		deps.MetricInc(deps.Metrics.OTPVerifyFailure)
		deps.EmitAudit(ctx, deps.Events.RecoveryVerify, false, account.ID, deps.Errors.OTPMismatch, func() map[string]string {
			return map[string]string{"reason": "no_live_code"}
		})
		return "", deps.Errors.OTPMismatch
	}

	if !account.RecoveryExpiresAt.IsZero() && !deps.Now().Before(account.RecoveryExpiresAt) {
		_ = deps.ClearRecovery(ctx, account.ID)
		deps.MetricInc(deps.Metrics.OTPVerifyFailure)
		deps.EmitAudit(ctx, deps.Events.RecoveryVerify, false, account.ID, deps.Errors.OTPMismatch, func() map[string]string {
			return map[string]string{"reason": "expired"}
		})
		return "", deps.Errors.OTPMismatch
	}

	if subtle.ConstantTimeCompare([]byte(deps.HashCode(otp)), []byte(account.RecoveryCode)) != 1 {
		attempts, err := deps.IncrementRecoveryAttempts(ctx, account.ID)
		if err != nil {
			return "", deps.MapStoreError(err)
		}
		deps.MetricInc(deps.Metrics.OTPVerifyFailure)
		if attempts >= deps.MaxOTPAttempts {
			if err := deps.InvalidateRecoveryCode(ctx, account.ID); err != nil {
				return "", deps.MapStoreError(err)
			}
			deps.MetricInc(deps.Metrics.OTPLockout)
			deps.EmitAudit(ctx, deps.Events.RecoveryLockout, false, account.ID, deps.Errors.OTPAttemptsExceeded, nil)
			return "", deps.Errors.OTPAttemptsExceeded
		}
		deps.EmitAudit(ctx, deps.Events.RecoveryVerify, false, account.ID, deps.Errors.OTPMismatch, nil)
		return "", deps.Errors.OTPMismatch
	}

	token, err := deps.NewExchangeToken()
	if err != nil {
		return "", err
	}
	// The token is saved before the code is cleared, so a failure in between
	// leaves the caller able to retry with the same code.
	if err := deps.SaveExchangeToken(ctx, token, account.Email, deps.ExchangeTTL); err != nil {
		return "", deps.MapStoreError(err)
	}
	if err := deps.ClearRecovery(ctx, account.ID); err != nil {
		return "", deps.MapStoreError(err)
	}

	deps.MetricInc(deps.Metrics.OTPVerifySuccess)
	deps.EmitAudit(ctx, deps.Events.RecoveryVerify, true, account.ID, nil, nil)
	return token, nil
}

// RunResetPassword consumes token and sets the account's new password. The
// token is restored when the password update fails after consumption.
func RunResetPassword(ctx context.Context, token, newPassword, confirmPassword string, deps RecoveryDeps) error {
	normalizeRecoveryDeps(&deps)

	if deps.ConsumeExchangeToken == nil || deps.FindAccountByEmail == nil || deps.HashPassword == nil ||
		deps.UpdatePasswordHash == nil {
		return deps.Errors.EngineNotReady
	}

	switch {
	case token == "" || newPassword == "" || confirmPassword == "":
		return fmt.Errorf("%w: token, password and confirmation are required", deps.Errors.Validation)
	case newPassword != confirmPassword:
		return deps.Errors.MismatchedConfirmation
	case len(newPassword) < deps.MinPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", deps.Errors.Validation, deps.MinPasswordLength)
	}

	email, err := deps.ConsumeExchangeToken(ctx, token)
	if err != nil {
		if deps.IsExchangeNotFound(err) {
			deps.MetricInc(deps.Metrics.PasswordResetFailure)
			deps.EmitAudit(ctx, deps.Events.PasswordResetReplay, false, "", deps.Errors.InvalidOrExpiredToken, nil)
			return deps.Errors.InvalidOrExpiredToken
		}
		return deps.MapStoreError(err)
	}

	restore := func() {
		if deps.RestoreExchangeToken != nil {
			_ = deps.RestoreExchangeToken(ctx, token, email)
		}
	}

	account, err := deps.FindAccountByEmail(ctx, email)
	if err != nil {
		mapped := deps.MapStoreError(err)
		if !errors.Is(mapped, deps.Errors.AccountNotFound) {
			restore()
		}
		deps.MetricInc(deps.Metrics.PasswordResetFailure)
		return mapped
	}

	hash, err := deps.HashPassword(newPassword)
	if err != nil {
		restore()
		return err
	}
	if err := deps.UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		restore()
		deps.MetricInc(deps.Metrics.PasswordResetFailure)
		return deps.MapStoreError(err)
	}

	deps.MetricInc(deps.Metrics.PasswordResetSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordReset, true, account.ID, nil, nil)
	return nil
}

func checkRecoveryLimiter(ctx context.Context, check func(context.Context, string, string) error, scope, email string, deps RecoveryDeps) error {
	if check == nil {
		return nil
	}
	err := check(ctx, email, deps.ClientIPFromContext(ctx))
	if err == nil {
		return nil
	}
	mapped := deps.MapLimiterError(err)
	if errors.Is(mapped, deps.Errors.RateLimited) {
		deps.EmitRateLimit(ctx, scope, func() map[string]string {
			return map[string]string{"email": email}
		})
	}
	return mapped
}

func normalizeRecoveryDeps(deps *RecoveryDeps) {
	if deps.MaxOTPAttempts <= 0 {
		deps.MaxOTPAttempts = 1
	}
	if deps.MinPasswordLength <= 0 {
		deps.MinPasswordLength = 1
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.MapLimiterError == nil {
		deps.MapLimiterError = func(err error) error { return err }
	}
	if deps.MapStoreError == nil {
		deps.MapStoreError = func(err error) error { return err }
	}
	if deps.SleepEnumerationDelay == nil {
		deps.SleepEnumerationDelay = func(context.Context) error { return nil }
	}
	if deps.IsExchangeNotFound == nil {
		deps.IsExchangeNotFound = func(error) bool { return false }
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

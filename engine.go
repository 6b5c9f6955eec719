package roomrent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/roomrent/internal/dispatch"
	internalflows "github.com/MrEthical07/roomrent/internal/flows"
	"github.com/MrEthical07/roomrent/internal/limiters"
	"github.com/MrEthical07/roomrent/internal/stores"
	"github.com/MrEthical07/roomrent/jwt"
	"github.com/MrEthical07/roomrent/password"
	"go.uber.org/zap"
)

// Engine runs every auth operation: the bearer gate, registration and email
// verification, login, OTP recovery and password changes. Build one with
// New().…Build() and share it; all methods are safe for concurrent use.
type Engine struct {
	config          Config
	accounts        AccountStore
	notifier        Notifier
	mailer          *dispatch.Dispatcher[Notification]
	audit           *dispatch.Dispatcher[AuditEvent]
	exchangeStore   *stores.ExchangeTokenStore
	recoveryLimiter *limiters.RecoveryLimiter
	passwordHash    *password.Argon2
	jwtManager      *jwt.Manager
	metrics         *Metrics
	logger          *zap.Logger
	clock           func() time.Time
}

// Close drains the notification and audit queues.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.mailer != nil {
		e.mailer.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

// AuditDropped returns how many audit events were dropped on a full queue.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// NotificationsDropped returns how many queued emails were dropped on a full
// queue.
func (e *Engine) NotificationsDropped() uint64 {
	if e == nil || e.mailer == nil {
		return 0
	}
	return e.mailer.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Logger returns the engine logger. It is never nil.
func (e *Engine) Logger() *zap.Logger {
	if e == nil || e.logger == nil {
		return zap.NewNop()
	}
	return e.logger
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Authenticate verifies a bearer credential and returns the identity it
// carries. It performs no store I/O. Every failure is ErrInvalidCredential.
func (e *Engine) Authenticate(ctx context.Context, token string) (*AuthResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	res, err := internalflows.RunAuthenticate(token, internalflows.AuthenticateDeps{
		ParseAccess: e.jwtManager.ParseAccess,
		Now:         time.Now,
		Observe: func(d time.Duration) {
			if e.metrics != nil {
				e.metrics.Observe(MetricAuthenticateLatency, d)
			}
		},
		MetricInc:     func(id int) { e.metricInc(MetricID(id)) },
		FailureMetric: int(MetricAuthenticateFailure),
		Invalid:       ErrInvalidCredential,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccountID: res.AccountID,
		IssuedAt:  res.IssuedAt,
		ExpiresAt: res.ExpiresAt,
	}, nil
}

// IssueCredential signs a bearer credential for accountID.
func (e *Engine) IssueCredential(accountID string) (string, error) {
	if e == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}
	return e.jwtManager.CreateAccess(accountID)
}

func (e *Engine) mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrVerificationNotFound),
		errors.Is(err, ErrDuplicateIdentity),
		errors.Is(err, ErrStoreUnavailable):
		return err
	}
	e.Logger().Error("store call failed", zap.Error(err))
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func mapLimiterError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, limiters.ErrRecoveryRateLimited):
		return ErrRecoveryRateLimited
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

func (e *Engine) verifyPassword(plain, hash string) (bool, error) {
	ok, err := e.passwordHash.Verify(plain, hash)
	if errors.Is(err, password.ErrTooLong) {
		return false, nil
	}
	return ok, err
}

func (e *Engine) needsUpgrade(hash string) bool {
	upgrade, err := e.passwordHash.NeedsUpgrade(hash)
	return err == nil && upgrade
}

func (e *Engine) updatePasswordHash(ctx context.Context, accountID, hash string) error {
	return e.accounts.UpdateAccount(ctx, accountID, AccountUpdate{PasswordHash: &hash})
}

func (e *Engine) findFlowAccountByEmail(ctx context.Context, email string) (internalflows.AccountRecord, error) {
	a, err := e.accounts.FindAccountByEmail(ctx, email)
	if err != nil {
		return internalflows.AccountRecord{}, err
	}
	return toFlowAccount(a), nil
}

func (e *Engine) findFlowAccountByID(ctx context.Context, id string) (internalflows.AccountRecord, error) {
	a, err := e.accounts.FindAccountByID(ctx, id)
	if err != nil {
		return internalflows.AccountRecord{}, err
	}
	return toFlowAccount(a), nil
}

func toFlowAccount(a Account) internalflows.AccountRecord {
	return internalflows.AccountRecord{
		ID:                a.ID,
		Email:             a.Email,
		Name:              a.Name,
		PasswordHash:      a.PasswordHash,
		Verified:          a.Verified,
		RecoveryCode:      a.RecoveryCode,
		RecoveryExpiresAt: a.RecoveryExpiresAt,
		RecoveryAttempts:  a.RecoveryAttempts,
	}
}

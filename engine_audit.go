package roomrent

import (
	"context"
	"time"
)

const (
	auditEventRegisterSuccess     = "register_success"
	auditEventRegisterFailure     = "register_failure"
	auditEventVerificationRequest = "verification_request"
	auditEventVerificationConfirm = "verification_confirm"
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventRecoveryRequest     = "recovery_request"
	auditEventRecoveryVerify      = "recovery_verify"
	auditEventRecoveryLockout     = "recovery_lockout"
	auditEventPasswordReset       = "password_reset"
	auditEventPasswordResetReplay = "password_reset_replay"
	auditEventPasswordChange      = "password_change"
	auditEventProfileUpdate       = "profile_update"
	auditEventRateLimitTriggered  = "rate_limit_triggered"
	auditEventNotificationDropped = "notification_dropped"
	auditEventNotificationFailed  = "notification_failed"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = CodeOf(err)
	}

	e.audit.Submit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, scope string, metadataBuilder func() map[string]string) {
	e.metricInc(MetricRecoveryRateLimited)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", ErrRecoveryRateLimited, func() map[string]string {
		base := map[string]string{
			"scope": scope,
		}
		if metadataBuilder == nil {
			return base
		}
		for k, v := range metadataBuilder() {
			base[k] = v
		}
		return base
	})
}

func (e *Engine) now() time.Time {
	if e != nil && e.clock != nil {
		return e.clock()
	}
	return time.Now()
}

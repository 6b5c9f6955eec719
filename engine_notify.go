package roomrent

import (
	"bytes"
	"context"
	"html/template"
	"net/url"
	"strings"

	internalflows "github.com/MrEthical07/roomrent/internal/flows"
	"go.uber.org/zap"
)

const (
	notifyKindVerification = "verification"
	notifyKindVerified     = "verified"
	notifyKindRecovery     = "recovery"
	notifyKindGeneric      = "generic"
)

var (
	verificationMailTemplate = template.Must(template.New("verification").Parse(
		`<p>Hello {{.Name}},</p>` +
			`<p>Please confirm your email address to finish creating your account.</p>` +
			`<p><a href="{{.Link}}">Verify my email</a></p>` +
			`<p>If you did not sign up, ignore this message.</p>`))

	verifiedMailTemplate = template.Must(template.New("verified").Parse(
		`<p>Hello {{.Name}},</p>` +
			`<p>Your email address has been verified. You can now sign in.</p>`))

	recoveryMailTemplate = template.Must(template.New("recovery").Parse(
		`<p>Hello {{.Name}},</p>` +
			`<p>Your password reset code is <strong>{{.Code}}</strong>.</p>` +
			`<p>It expires in {{.Minutes}} minutes. If you did not ask to reset your password, ignore this message.</p>`))
)

func renderMail(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Enqueue hands a notification to the background mailer. It reports whether
// the message was queued; a full or closed queue drops it.
func (e *Engine) Enqueue(ctx context.Context, n Notification) bool {
	if e == nil || e.mailer == nil {
		return false
	}
	if n.Kind == "" {
		n.Kind = notifyKindGeneric
	}
	if !e.mailer.Submit(ctx, n) {
		e.Logger().Warn("notification dropped", zap.String("kind", n.Kind))
		e.emitAudit(ctx, auditEventNotificationDropped, false, "", nil, func() map[string]string {
			return map[string]string{"kind": n.Kind}
		})
		return false
	}
	return true
}

// deliver runs on the mailer goroutine.
func (e *Engine) deliver(ctx context.Context, n Notification) {
	sendCtx, cancel := context.WithTimeout(ctx, e.config.Notify.SendTimeout)
	defer cancel()

	if err := e.notifier.Send(sendCtx, n.To, n.Subject, n.Body); err != nil {
		e.metricInc(MetricNotificationFailure)
		e.Logger().Warn("notification failed", zap.String("kind", n.Kind), zap.Error(err))
		e.emitAudit(ctx, auditEventNotificationFailed, false, "", ErrDeliveryFailure, func() map[string]string {
			return map[string]string{"kind": n.Kind}
		})
	}
}

func (e *Engine) sendNow(ctx context.Context, n Notification) error {
	sendCtx, cancel := context.WithTimeout(ctx, e.config.Notify.SendTimeout)
	defer cancel()
	return e.notifier.Send(sendCtx, n.To, n.Subject, n.Body)
}

func (e *Engine) verificationLink(accountID, token string) string {
	base := strings.TrimRight(e.config.EmailVerification.PublicBaseURL, "/")
	return base + "/verify/" + url.PathEscape(accountID) + "/" + url.PathEscape(token)
}

func (e *Engine) sendVerification(ctx context.Context, account internalflows.AccountRecord, token string) {
	body, err := renderMail(verificationMailTemplate, map[string]string{
		"Name": account.Name,
		"Link": e.verificationLink(account.ID, token),
	})
	if err != nil {
		e.Logger().Error("render verification mail", zap.Error(err))
		return
	}
	e.Enqueue(ctx, Notification{
		To:      account.Email,
		Subject: "Verify your email",
		Body:    body,
		Kind:    notifyKindVerification,
	})
}

func (e *Engine) sendVerified(ctx context.Context, account internalflows.AccountRecord) {
	body, err := renderMail(verifiedMailTemplate, map[string]string{"Name": account.Name})
	if err != nil {
		e.Logger().Error("render verified mail", zap.Error(err))
		return
	}
	e.Enqueue(ctx, Notification{
		To:      account.Email,
		Subject: "Your email is verified",
		Body:    body,
		Kind:    notifyKindVerified,
	})
}

func (e *Engine) sendRecoveryCode(ctx context.Context, account internalflows.AccountRecord, code string) error {
	body, err := renderMail(recoveryMailTemplate, map[string]any{
		"Name":    account.Name,
		"Code":    code,
		"Minutes": int(e.config.Recovery.OTPTTL.Minutes()),
	})
	if err != nil {
		return err
	}
	return e.sendNow(ctx, Notification{
		To:      account.Email,
		Subject: "Your password reset code",
		Body:    body,
		Kind:    notifyKindRecovery,
	})
}

package internaldefs

import (
	"github.com/MrEthical07/roomrent"
)

// CounterDef maps an engine counter to its exported name.
type CounterDef struct {
	ID   roomrent.MetricID
	Name string
	Help string
}

// HistogramDef maps an engine histogram to its exported name.
type HistogramDef struct {
	ID   roomrent.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported engine counter.
var CounterDefs = []CounterDef{
	{ID: roomrent.MetricRegisterSuccess, Name: "roomrent_register_success_total", Help: "Accounts created by registration."},
	{ID: roomrent.MetricRegisterDuplicate, Name: "roomrent_register_duplicate_total", Help: "Registrations rejected because the email exists."},
	{ID: roomrent.MetricVerificationSuccess, Name: "roomrent_verification_success_total", Help: "Confirmed email verifications."},
	{ID: roomrent.MetricVerificationFailure, Name: "roomrent_verification_failure_total", Help: "Rejected verification confirmations."},
	{ID: roomrent.MetricLoginSuccess, Name: "roomrent_login_success_total", Help: "Successful logins."},
	{ID: roomrent.MetricLoginFailure, Name: "roomrent_login_failure_total", Help: "Logins rejected for an unknown account or bad password."},
	{ID: roomrent.MetricLoginUnverified, Name: "roomrent_login_unverified_total", Help: "Logins rejected because the email is unverified."},
	{ID: roomrent.MetricPasswordUpgraded, Name: "roomrent_password_upgraded_total", Help: "Stored password hashes re-encoded on login."},
	{ID: roomrent.MetricRecoveryRequest, Name: "roomrent_recovery_request_total", Help: "Password recovery requests."},
	{ID: roomrent.MetricRecoveryRateLimited, Name: "roomrent_recovery_rate_limited_total", Help: "Recovery requests and OTP checks refused by the limiter."},
	{ID: roomrent.MetricRecoveryDeliveryFailure, Name: "roomrent_recovery_delivery_failure_total", Help: "Recovery codes that could not be delivered."},
	{ID: roomrent.MetricOTPVerifySuccess, Name: "roomrent_otp_verify_success_total", Help: "Recovery codes exchanged for a reset token."},
	{ID: roomrent.MetricOTPVerifyFailure, Name: "roomrent_otp_verify_failure_total", Help: "Recovery code mismatches."},
	{ID: roomrent.MetricOTPLockout, Name: "roomrent_otp_lockout_total", Help: "Recovery codes invalidated after too many mismatches."},
	{ID: roomrent.MetricPasswordResetSuccess, Name: "roomrent_password_reset_success_total", Help: "Passwords reset with an exchange token."},
	{ID: roomrent.MetricPasswordResetFailure, Name: "roomrent_password_reset_failure_total", Help: "Rejected password resets."},
	{ID: roomrent.MetricPasswordChangeSuccess, Name: "roomrent_password_change_success_total", Help: "Authenticated password changes."},
	{ID: roomrent.MetricPasswordChangeFailure, Name: "roomrent_password_change_failure_total", Help: "Rejected password changes."},
	{ID: roomrent.MetricNotificationFailure, Name: "roomrent_notification_failure_total", Help: "Queued emails that failed to send."},
	{ID: roomrent.MetricAuthenticateFailure, Name: "roomrent_authenticate_failure_total", Help: "Bearer credentials rejected by the gate."},
}

var HistogramDefs = []HistogramDef{
	{ID: roomrent.MetricAuthenticateLatency, Name: "roomrent_authenticate_latency_seconds", Help: "Bearer credential verification latency."},
}

// Queue drop counters are read from the engine directly rather than the
// snapshot.
const (
	AuditDroppedName         = "roomrent_audit_dropped_total"
	AuditDroppedHelp         = "Audit events dropped because the queue was full."
	NotificationsDroppedName = "roomrent_notifications_dropped_total"
	NotificationsDroppedHelp = "Emails dropped because the queue was full."
)

// HistogramBounds are the upper bounds of the engine latency buckets, in
// seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix names each bucket for exporters that cannot use
// labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

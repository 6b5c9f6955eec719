package roomrent

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/roomrent/internal"
)

// Config holds every engine setting. Start from DefaultConfig and override
// fields; Build validates the result.
type Config struct {
	JWT               JWTConfig
	Password          PasswordConfig
	Recovery          RecoveryConfig
	EmailVerification EmailVerificationConfig
	Notify            NotifyConfig
	Audit             AuditConfig
	Metrics           MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures bearer credential signing.
type JWTConfig struct {
	// AccessTTL of zero issues credentials without an exp claim.
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds argon2id parameters and the password length policy.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	MinLength      int
	UpgradeOnLogin bool
}

/*
====================================
RECOVERY CONFIG
====================================
*/

// RecoveryConfig controls the OTP password recovery flow.
type RecoveryConfig struct {
	OTPDigits      int
	OTPTTL         time.Duration
	MaxOTPAttempts int
	ExchangeTTL    time.Duration
	ExchangePrefix string

	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	ThrottleWindow           time.Duration
	MaxRequestsPerWindow     int
	MaxVerifiesPerWindow     int

	// EnumerationDelay is slept before answering a request for an unknown
	// email.
	EnumerationDelay time.Duration
}

// EmailVerificationConfig controls verification links.
type EmailVerificationConfig struct {
	// PublicBaseURL prefixes the link, which is <base>/verify/<id>/<token>.
	PublicBaseURL string
}

// NotifyConfig controls the asynchronous email queue.
type NotifyConfig struct {
	BufferSize  int
	DropIfFull  bool
	SendTimeout time.Duration
}

// AuditConfig controls the audit event queue.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults. JWT.PrivateKey must still be
// supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     24 * time.Hour,
			SigningMethod: "hs256",
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			MinLength:      6,
			UpgradeOnLogin: true,
		},
		Recovery: RecoveryConfig{
			OTPDigits:                4,
			OTPTTL:                   10 * time.Minute,
			MaxOTPAttempts:           5,
			ExchangeTTL:              15 * time.Minute,
			ExchangePrefix:           "rxt",
			EnableIdentifierThrottle: true,
			EnableIPThrottle:         true,
			ThrottleWindow:           15 * time.Minute,
			MaxRequestsPerWindow:     5,
			MaxVerifiesPerWindow:     10,
			EnumerationDelay:         150 * time.Millisecond,
		},
		EmailVerification: EmailVerificationConfig{
			PublicBaseURL: "http://localhost:8080",
		},
		Notify: NotifyConfig{
			BufferSize:  256,
			DropIfFull:  true,
			SendTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL < 0 {
		return errors.New("JWT AccessTTL must be >= 0")
	}
	switch c.JWT.SigningMethod {
	case "hs256":
		if len(c.JWT.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 || len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PrivateKey and PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 {
		return errors.New("JWT Leeway must be >= 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}

	// Recovery
	if c.Recovery.OTPDigits < internal.MinOTPDigits || c.Recovery.OTPDigits > internal.MaxOTPDigits {
		return errors.New("Recovery OTPDigits must be between 4 and 10")
	}
	if c.Recovery.OTPTTL <= 0 {
		return errors.New("Recovery OTPTTL must be > 0")
	}
	if c.Recovery.MaxOTPAttempts <= 0 {
		return errors.New("Recovery MaxOTPAttempts must be > 0")
	}
	if c.Recovery.ExchangeTTL <= 0 {
		return errors.New("Recovery ExchangeTTL must be > 0")
	}
	if c.Recovery.EnableIdentifierThrottle || c.Recovery.EnableIPThrottle {
		if c.Recovery.ThrottleWindow <= 0 {
			return errors.New("Recovery ThrottleWindow must be > 0 when throttling is enabled")
		}
		if c.Recovery.MaxRequestsPerWindow <= 0 || c.Recovery.MaxVerifiesPerWindow <= 0 {
			return errors.New("Recovery per-window limits must be > 0 when throttling is enabled")
		}
	}
	if c.Recovery.EnumerationDelay < 0 {
		return errors.New("Recovery EnumerationDelay must be >= 0")
	}

	// Email verification
	base := strings.TrimSpace(c.EmailVerification.PublicBaseURL)
	if base == "" {
		return errors.New("EmailVerification PublicBaseURL is required")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return errors.New("EmailVerification PublicBaseURL must be an http(s) URL")
	}

	// Notify
	if c.Notify.BufferSize <= 0 {
		return errors.New("Notify BufferSize must be > 0")
	}
	if c.Notify.SendTimeout <= 0 {
		return errors.New("Notify SendTimeout must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

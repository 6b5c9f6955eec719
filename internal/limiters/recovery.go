package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRecoveryRateLimited      = errors.New("recovery rate limited")
	ErrRecoveryRedisUnavailable = errors.New("recovery redis unavailable")
)

type RecoveryConfig struct {
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	Window                   time.Duration
	MaxRequests              int
	MaxVerifies              int
}

// RecoveryLimiter throttles password recovery and verification resend
// traffic per email and per client IP using fixed windows.
type RecoveryLimiter struct {
	redis  redis.UniversalClient
	config RecoveryConfig
}

func NewRecoveryLimiter(redisClient redis.UniversalClient, cfg RecoveryConfig) *RecoveryLimiter {
	return &RecoveryLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckRequest counts one OTP request.
func (l *RecoveryLimiter) CheckRequest(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	return l.check(ctx, "rrq", email, ip, l.config.MaxRequests)
}

// CheckResend counts one verification link resend. Resends share the
// request limit but not its counters.
func (l *RecoveryLimiter) CheckResend(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	return l.check(ctx, "vrs", email, ip, l.config.MaxRequests)
}

// CheckVerify counts one OTP verification attempt.
func (l *RecoveryLimiter) CheckVerify(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	return l.check(ctx, "rvf", email, ip, l.config.MaxVerifies)
}

func (l *RecoveryLimiter) check(ctx context.Context, prefix, email, ip string, limit int) error {
	if l.config.EnableIdentifierThrottle && email != "" {
		if err := l.enforceFixedWindow(ctx, prefix+":e:"+email, limit); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, prefix+":ip:"+ip, limit); err != nil {
			return err
		}
	}
	return nil
}

func (l *RecoveryLimiter) enforceFixedWindow(ctx context.Context, key string, limit int) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRecoveryRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRecoveryRedisUnavailable, err)
		}
	}

	if count > int64(limit) {
		return ErrRecoveryRateLimited
	}

	return nil
}

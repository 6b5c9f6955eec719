package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg RecoveryConfig) (*miniredis.Miniredis, *RecoveryLimiter) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, NewRecoveryLimiter(rdb, cfg)
}

func TestRecoveryLimiterRequestWindow(t *testing.T) {
	mr, l := newTestLimiter(t, RecoveryConfig{
		EnableIdentifierThrottle: true,
		Window:                   time.Minute,
		MaxRequests:              2,
		MaxVerifies:              5,
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.CheckRequest(ctx, "a@x.com", ""); err != nil {
			t.Fatalf("request %d unexpectedly limited: %v", i, err)
		}
	}
	if err := l.CheckRequest(ctx, "a@x.com", ""); !errors.Is(err, ErrRecoveryRateLimited) {
		t.Fatalf("expected ErrRecoveryRateLimited, got %v", err)
	}
	if err := l.CheckRequest(ctx, "b@x.com", ""); err != nil {
		t.Fatalf("other identifier should not be limited: %v", err)
	}

	mr.FastForward(61 * time.Second)
	if err := l.CheckRequest(ctx, "a@x.com", ""); err != nil {
		t.Fatalf("expected window reset, got %v", err)
	}
}

func TestResendCountsSeparately(t *testing.T) {
	_, l := newTestLimiter(t, RecoveryConfig{
		EnableIdentifierThrottle: true,
		Window:                   time.Minute,
		MaxRequests:              1,
		MaxVerifies:              1,
	})
	ctx := context.Background()

	if err := l.CheckRequest(ctx, "a@x.com", ""); err != nil {
		t.Fatalf("request limited: %v", err)
	}
	if err := l.CheckResend(ctx, "a@x.com", ""); err != nil {
		t.Fatalf("resend should not spend the OTP budget: %v", err)
	}
	if err := l.CheckResend(ctx, "a@x.com", ""); !errors.Is(err, ErrRecoveryRateLimited) {
		t.Fatalf("expected ErrRecoveryRateLimited, got %v", err)
	}
}

func TestRecoveryLimiterIPThrottle(t *testing.T) {
	_, l := newTestLimiter(t, RecoveryConfig{
		EnableIPThrottle: true,
		Window:           time.Minute,
		MaxRequests:      5,
		MaxVerifies:      1,
	})
	ctx := context.Background()

	if err := l.CheckVerify(ctx, "a@x.com", "10.0.0.1"); err != nil {
		t.Fatalf("first verify limited: %v", err)
	}
	if err := l.CheckVerify(ctx, "b@x.com", "10.0.0.1"); !errors.Is(err, ErrRecoveryRateLimited) {
		t.Fatalf("expected IP throttle across identifiers, got %v", err)
	}
	if err := l.CheckVerify(ctx, "a@x.com", ""); err != nil {
		t.Fatalf("missing IP should skip IP throttle, got %v", err)
	}
}

func TestRecoveryLimiterNilSafe(t *testing.T) {
	var l *RecoveryLimiter
	if err := l.CheckRequest(context.Background(), "a@x.com", "1.1.1.1"); err != nil {
		t.Fatalf("nil limiter should allow, got %v", err)
	}
}

func TestRecoveryLimiterRedisUnavailable(t *testing.T) {
	mr, l := newTestLimiter(t, RecoveryConfig{EnableIdentifierThrottle: true, Window: time.Minute, MaxRequests: 1})
	mr.Close()

	if err := l.CheckRequest(context.Background(), "a@x.com", ""); !errors.Is(err, ErrRecoveryRedisUnavailable) {
		t.Fatalf("expected ErrRecoveryRedisUnavailable, got %v", err)
	}
}

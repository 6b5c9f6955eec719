package stores

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *redis.Client, *ExchangeTokenStore) {
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
	return mr, rdb, NewExchangeTokenStore(rdb, "rxt")
}

func TestExchangeConsumeIsSingleUse(t *testing.T) {
	_, _, store := newTestStore(t)
	ctx := context.Background()

	record := &ExchangeRecord{Email: "a@x.com", ExpiresAt: time.Now().Add(time.Minute).Unix()}
	if err := store.Save(ctx, "tok-1", record, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Consume(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if got.Email != "a@x.com" {
		t.Fatalf("unexpected email %q", got.Email)
	}

	if _, err := store.Consume(ctx, "tok-1"); !errors.Is(err, ErrExchangeNotFound) {
		t.Fatalf("expected second consume to fail with ErrExchangeNotFound, got %v", err)
	}
}

func TestExchangeKeyDoesNotContainToken(t *testing.T) {
	mr, _, store := newTestStore(t)
	ctx := context.Background()

	record := &ExchangeRecord{Email: "a@x.com", ExpiresAt: time.Now().Add(time.Minute).Unix()}
	if err := store.Save(ctx, "plain-token-value", record, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	for _, key := range mr.Keys() {
		if strings.Contains(key, "plain-token-value") {
			t.Fatalf("redis key %q leaks the token", key)
		}
	}
}

func TestExchangeLazyExpiry(t *testing.T) {
	mr, _, store := newTestStore(t)
	ctx := context.Background()

	issued := time.Now()
	record := &ExchangeRecord{Email: "a@x.com", ExpiresAt: issued.Add(time.Minute).Unix()}
	if err := store.Save(ctx, "tok-1", record, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	store.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := store.Consume(ctx, "tok-1"); !errors.Is(err, ErrExchangeNotFound) {
		t.Fatalf("expected expired record to be reported missing, got %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("expected expired record to be purged, keys=%v", mr.Keys())
	}
}

func TestExchangeRedisTTLExpiry(t *testing.T) {
	mr, _, store := newTestStore(t)
	ctx := context.Background()

	record := &ExchangeRecord{Email: "a@x.com", ExpiresAt: time.Now().Add(15 * time.Minute).Unix()}
	if err := store.Save(ctx, "tok-1", record, 15*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mr.FastForward(16 * time.Minute)
	if _, err := store.Consume(ctx, "tok-1"); !errors.Is(err, ErrExchangeNotFound) {
		t.Fatalf("expected ErrExchangeNotFound after TTL, got %v", err)
	}
}

func TestExchangeRestore(t *testing.T) {
	_, _, store := newTestStore(t)
	ctx := context.Background()

	record := &ExchangeRecord{Email: "a@x.com", ExpiresAt: time.Now().Add(time.Minute).Unix()}
	if err := store.Save(ctx, "tok-1", record, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	consumed, err := store.Consume(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if err := store.Restore(ctx, "tok-1", consumed); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	again, err := store.Consume(ctx, "tok-1")
	if err != nil {
		t.Fatalf("expected restored record to be live, got %v", err)
	}
	if again.Email != "a@x.com" {
		t.Fatalf("restored record lost its email: %+v", again)
	}
}

func TestExchangeCorruptRecordIsPurged(t *testing.T) {
	mr, _, store := newTestStore(t)
	ctx := context.Background()

	if err := mr.Set(store.key("tok-1"), "\x09garbage"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := store.Consume(ctx, "tok-1"); !errors.Is(err, ErrExchangeNotFound) {
		t.Fatalf("expected corrupt record to be treated as missing, got %v", err)
	}
	if mr.Exists(store.key("tok-1")) {
		t.Fatal("expected corrupt record to be deleted")
	}
}

func TestExchangeSaveValidation(t *testing.T) {
	_, _, store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "tok", &ExchangeRecord{Email: "a@x.com"}, 0); err == nil {
		t.Fatal("expected zero ttl to be rejected")
	}
	if err := store.Save(ctx, "tok", &ExchangeRecord{}, time.Minute); err == nil {
		t.Fatal("expected empty email to be rejected")
	}
}

func TestExchangeRedisUnavailable(t *testing.T) {
	mr, _, store := newTestStore(t)
	mr.Close()

	err := store.Save(context.Background(), "tok", &ExchangeRecord{Email: "a@x.com", ExpiresAt: time.Now().Add(time.Minute).Unix()}, time.Minute)
	if !errors.Is(err, ErrExchangeRedisUnavailable) {
		t.Fatalf("expected ErrExchangeRedisUnavailable, got %v", err)
	}
}

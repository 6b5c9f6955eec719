package roomrent

import (
	"context"
	"errors"
	"testing"
)

func TestVerificationUnlocksLogin(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	p, err := env.engine.Register(ctx, registerInput("a@x.com", "secret1"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := env.engine.Login(ctx, "a@x.com", "secret1"); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified before confirmation, got %v", err)
	}

	rec, err := env.store.FindVerificationByAccount(ctx, p.ID)
	if err != nil {
		t.Fatalf("FindVerificationByAccount: %v", err)
	}
	if err := env.engine.ConfirmVerification(ctx, p.ID, rec.Token); err != nil {
		t.Fatalf("ConfirmVerification failed: %v", err)
	}
	if _, err := env.engine.Login(ctx, "a@x.com", "secret1"); err != nil {
		t.Fatalf("Login after confirmation failed: %v", err)
	}
	if _, err := env.store.FindVerificationByAccount(ctx, p.ID); !errors.Is(err, ErrVerificationNotFound) {
		t.Fatalf("verification record should be deleted, got %v", err)
	}
	env.notifier.waitFor(t, "Your email is verified")

	if err := env.engine.ConfirmVerification(ctx, p.ID, rec.Token); !errors.Is(err, ErrVerificationNotFound) {
		t.Fatalf("second confirmation should find no record, got %v", err)
	}
}

func TestConfirmVerificationMismatchKeepsRecord(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	p, err := env.engine.Register(ctx, registerInput("a@x.com", "secret1"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := env.engine.ConfirmVerification(ctx, p.ID, "forged"+p.ID); !errors.Is(err, ErrVerificationTokenMismatch) {
		t.Fatalf("expected ErrVerificationTokenMismatch, got %v", err)
	}
	if env.store.account(t, "a@x.com").Verified {
		t.Fatal("mismatch must not verify the account")
	}
	rec, err := env.store.FindVerificationByAccount(ctx, p.ID)
	if err != nil {
		t.Fatalf("record should survive a mismatch: %v", err)
	}
	if err := env.engine.ConfirmVerification(ctx, p.ID, rec.Token); err != nil {
		t.Fatalf("the real token should still work: %v", err)
	}
}

func TestConfirmVerificationNotFound(t *testing.T) {
	env := newTestEnv(t, testConfig())

	err := env.engine.ConfirmVerification(context.Background(), "missing", "tok")
	if !errors.Is(err, ErrVerificationNotFound) {
		t.Fatalf("expected ErrVerificationNotFound, got %v", err)
	}
	if CodeOf(err) != "record_not_found" {
		t.Fatalf("unexpected code %q", CodeOf(err))
	}
	if err := env.engine.ConfirmVerification(context.Background(), "", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestResendVerification(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	p, err := env.engine.Register(ctx, registerInput("a@x.com", "secret1"))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	env.notifier.waitFor(t, "Verify your email")
	first, _ := env.store.FindVerificationByAccount(ctx, p.ID)

	if err := env.engine.ResendVerification(ctx, "a@x.com"); err != nil {
		t.Fatalf("ResendVerification failed: %v", err)
	}
	env.notifier.waitFor(t, "Verify your email")
	second, err := env.store.FindVerificationByAccount(ctx, p.ID)
	if err != nil {
		t.Fatalf("FindVerificationByAccount: %v", err)
	}
	if second.Token == first.Token {
		t.Fatal("resend should issue a new token")
	}

	if err := env.engine.ResendVerification(ctx, "ghost@x.com"); err != nil {
		t.Fatalf("unknown email should succeed silently, got %v", err)
	}
}

func TestResendVerificationSkipsVerifiedAccounts(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	p := env.registerVerified(t, "a@x.com", "secret1")

	if err := env.engine.ResendVerification(ctx, "a@x.com"); err != nil {
		t.Fatalf("ResendVerification failed: %v", err)
	}
	if _, err := env.store.FindVerificationByAccount(ctx, p.ID); !errors.Is(err, ErrVerificationNotFound) {
		t.Fatalf("verified accounts must not get a new link, got %v", err)
	}
}

func TestResendRecoversUnsavedVerification(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	env.store.mu.Lock()
	env.store.verificationErr = errors.New("write concern failed")
	env.store.mu.Unlock()

	if _, err := env.engine.Register(ctx, registerInput("a@x.com", "secret1")); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	acct := env.store.account(t, "a@x.com")
	if acct.Verified {
		t.Fatal("account must stay unverified")
	}
	if _, err := env.engine.Register(ctx, registerInput("a@x.com", "secret1")); !errors.Is(err, ErrDuplicateIdentity) {
		t.Fatalf("re-registering should report the existing account, got %v", err)
	}

	env.store.mu.Lock()
	env.store.verificationErr = nil
	env.store.mu.Unlock()

	if err := env.engine.ResendVerification(ctx, "a@x.com"); err != nil {
		t.Fatalf("ResendVerification failed: %v", err)
	}
	env.notifier.waitFor(t, "Verify your email")
	rec, err := env.store.FindVerificationByAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("resend should create a record: %v", err)
	}
	if err := env.engine.ConfirmVerification(ctx, acct.ID, rec.Token); err != nil {
		t.Fatalf("ConfirmVerification failed: %v", err)
	}
}

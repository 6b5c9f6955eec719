package roomrent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type mockAccountStore struct {
	mu            sync.Mutex
	accounts      map[string]Account
	verifications map[string]VerificationRecord

	findErr         error
	updateErr       error
	verificationErr error

	findByIDCalls    int
	findByEmailCalls int
	updateCalls      int
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{
		accounts:      map[string]Account{},
		verifications: map[string]VerificationRecord{},
	}
}

func (m *mockAccountStore) FindAccountByEmail(_ context.Context, email string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByEmailCalls++
	if m.findErr != nil {
		return Account{}, m.findErr
	}
	for _, a := range m.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (m *mockAccountStore) FindAccountByID(_ context.Context, id string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByIDCalls++
	if m.findErr != nil {
		return Account{}, m.findErr
	}
	a, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

func (m *mockAccountStore) InsertAccount(_ context.Context, a Account) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return Account{}, ErrDuplicateIdentity
		}
	}
	a.ID = fmt.Sprintf("acc%d", len(m.accounts)+1)
	m.accounts[a.ID] = a
	return a, nil
}

func (m *mockAccountStore) UpdateAccount(_ context.Context, id string, u AccountUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	a, ok := m.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Address != nil {
		a.Address = *u.Address
	}
	if u.MobileNo != nil {
		a.MobileNo = *u.MobileNo
	}
	if u.ProfilePicture != nil {
		a.ProfilePicture = *u.ProfilePicture
	}
	if u.PasswordHash != nil {
		a.PasswordHash = *u.PasswordHash
	}
	if u.Verified != nil {
		a.Verified = *u.Verified
	}
	if u.RecoveryCode != nil {
		a.RecoveryCode = *u.RecoveryCode
	}
	if u.RecoveryExpiresAt != nil {
		a.RecoveryExpiresAt = *u.RecoveryExpiresAt
	}
	if u.RecoveryAttempts != nil {
		a.RecoveryAttempts = *u.RecoveryAttempts
	}
	if u.ClearRecovery {
		a.RecoveryCode = ""
		a.RecoveryExpiresAt = time.Time{}
		a.RecoveryAttempts = 0
	}
	m.accounts[id] = a
	return nil
}

func (m *mockAccountStore) IncrementRecoveryAttempts(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return 0, ErrAccountNotFound
	}
	a.RecoveryAttempts++
	m.accounts[id] = a
	return a.RecoveryAttempts, nil
}

func (m *mockAccountStore) ListAccounts(context.Context) ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAccountStore) InsertVerification(_ context.Context, rec VerificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.verificationErr != nil {
		return m.verificationErr
	}
	m.verifications[rec.AccountID] = rec
	return nil
}

func (m *mockAccountStore) FindVerificationByAccount(_ context.Context, accountID string) (VerificationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.verifications[accountID]
	if !ok {
		return VerificationRecord{}, ErrVerificationNotFound
	}
	return rec, nil
}

func (m *mockAccountStore) DeleteVerification(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.verifications[accountID]; !ok {
		return ErrVerificationNotFound
	}
	delete(m.verifications, accountID)
	return nil
}

func (m *mockAccountStore) account(t *testing.T, email string) Account {
	t.Helper()
	a, err := m.FindAccountByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("account %s: %v", email, err)
	}
	return a
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
	ch   chan sentMail
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{ch: make(chan sentMail, 64)}
}

func (n *mockNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	err := n.err
	if err == nil {
		n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: body})
	}
	n.mu.Unlock()
	if err != nil {
		return err
	}
	select {
	case n.ch <- sentMail{To: to, Subject: subject, Body: body}:
	default:
	}
	return nil
}

func (n *mockNotifier) setErr(err error) {
	n.mu.Lock()
	n.err = err
	n.mu.Unlock()
}

// last returns the newest delivered email whose subject contains subject.
func (n *mockNotifier) last(t *testing.T, subject string) sentMail {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.sent) - 1; i >= 0; i-- {
		if strings.Contains(n.sent[i].Subject, subject) {
			return n.sent[i]
		}
	}
	t.Fatalf("expected a %q email", subject)
	return sentMail{}
}

func (n *mockNotifier) countSubject(subject string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.sent {
		if strings.Contains(m.Subject, subject) {
			c++
		}
	}
	return c
}

// otpFrom extracts the code from a recovery email body.
func otpFrom(t *testing.T, body string) string {
	t.Helper()
	start := strings.Index(body, "<strong>")
	end := strings.Index(body, "</strong>")
	if start < 0 || end < start {
		t.Fatalf("no code in body %q", body)
	}
	return body[start+len("<strong>") : end]
}

// waitFor blocks until an email whose subject contains subject is delivered
// by the background queue.
func (n *mockNotifier) waitFor(t *testing.T, subject string) sentMail {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-n.ch:
			if strings.Contains(m.Subject, subject) {
				return m
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q email", subject)
			return sentMail{}
		}
	}
}

var errNotifierDown = errors.New("smtp: connection refused")

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Recovery.EnumerationDelay = 0
	cfg.Notify.DropIfFull = false
	cfg.EmailVerification.PublicBaseURL = "https://rooms.example"
	return cfg
}

type testEnv struct {
	engine   *Engine
	store    *mockAccountStore
	notifier *mockNotifier
	mr       *miniredis.Miniredis
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	mr, rdb := newTestRedis(t)
	store := newMockAccountStore()
	notifier := newMockNotifier()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountStore(store).
		WithNotifier(notifier).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, store: store, notifier: notifier, mr: mr}
}

// registerInput is a complete, valid registration for email.
func registerInput(email, password string) RegisterInput {
	return RegisterInput{
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
		Name:            "Test User",
		Address:         "12 Park Street",
		MobileNo:        "0123456789",
	}
}

// registerVerified registers an account and confirms its email.
func (env *testEnv) registerVerified(t *testing.T, email, password string) Profile {
	t.Helper()
	ctx := context.Background()

	p, err := env.engine.Register(ctx, registerInput(email, password))
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	rec, err := env.store.FindVerificationByAccount(ctx, p.ID)
	if err != nil {
		t.Fatalf("verification record missing: %v", err)
	}
	if err := env.engine.ConfirmVerification(ctx, p.ID, rec.Token); err != nil {
		t.Fatalf("ConfirmVerification failed: %v", err)
	}
	return p
}

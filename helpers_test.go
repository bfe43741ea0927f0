package goAccount

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/mailer"
	"github.com/MrEthical07/goAccount/provider"
	"github.com/MrEthical07/goAccount/store/memory"
	"github.com/MrEthical07/goAccount/user"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.AccessSecret = []byte("access-secret-for-tests-0123456789")
	cfg.JWT.RefreshSecret = []byte("refresh-secret-for-tests-987654321")
	cfg.Password.Cost = 4
	cfg.Registry.SweepInterval = 0
	return cfg
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []mailer.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *fakeSender) sent() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.msgs...)
}

type fakeVerifier struct {
	provider user.Provenance
	identity provider.Identity
	err      error
	calls    int
}

func (v *fakeVerifier) Provider() user.Provenance { return v.provider }

func (v *fakeVerifier) Verify(_ context.Context, cred provider.Credential) (provider.Identity, error) {
	v.calls++
	if v.err != nil {
		return provider.Identity{}, v.err
	}
	id := v.identity
	id.Provider = v.provider
	return id, nil
}

type testEngine struct {
	*Engine
	store  *memory.Store
	sender *fakeSender
}

type testOption func(*Builder)

func withVerifier(v provider.Verifier) testOption {
	return func(b *Builder) { b.WithVerifier(v) }
}

func withoutSender() testOption {
	return func(b *Builder) { b.WithSender(nil) }
}

func newTestEngine(t *testing.T, cfg Config, opts ...testOption) *testEngine {
	t.Helper()

	store := memory.New()
	sender := &fakeSender{}
	b := New().WithConfig(cfg).WithStore(store).WithSender(sender)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	engine.now = func() time.Time { return testNow }
	t.Cleanup(engine.Close)

	return &testEngine{Engine: engine, store: store, sender: sender}
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func validSignUp(email string) SignUpRequest {
	return SignUpRequest{
		Email:     email,
		Password:  "Abc123!@",
		Birthday:  "1990-04-01",
		ZipCode:   "01000",
		Gender:    "male",
		CellPhone: "5550001111",
	}
}

func mustSignUp(t *testing.T, e *testEngine, email string) *SignUpResult {
	t.Helper()
	res, err := e.SignUp(context.Background(), validSignUp(email))
	if err != nil {
		t.Fatalf("SignUp(%q) failed: %v", email, err)
	}
	return res
}

func storeCount(t *testing.T, e *testEngine) int64 {
	t.Helper()
	n, err := e.store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	return n
}

func requireFailure(t *testing.T, err error, want error, kind ErrorKind) *Failure {
	t.Helper()
	f, ok := err.(*Failure)
	if !ok {
		t.Fatalf("expected *Failure, got %T (%v)", err, err)
	}
	if f.Err != want {
		t.Fatalf("expected %v, got %v", want, f.Err)
	}
	if f.Kind != kind {
		t.Fatalf("expected kind %s, got %s", kind, f.Kind)
	}
	return f
}

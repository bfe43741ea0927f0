package goAccount

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/user"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func withAuditSink(sink AuditSink) testOption {
	return func(b *Builder) { b.WithAuditSink(sink) }
}

func auditConfig() Config {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 32
	cfg.Audit.DropIfFull = false
	return cfg
}

// collectEvents reads until n events arrived or the deadline passed.
func collectEvents(sink *ChannelSink, n int) []AuditEvent {
	events := make([]AuditEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case ev := <-sink.Events():
			events = append(events, ev)
		case <-timeout:
			return events
		}
	}
	return events
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = false

	sink := &countingSink{}
	e := newTestEngine(t, cfg, withAuditSink(sink))

	mustSignUp(t, e, "quiet@example.com")
	_, _ = e.Login(context.Background(), LoginRequest{Email: "quiet@example.com", Password: "Wrong123!"})
	time.Sleep(30 * time.Millisecond)

	if n := sink.count.Load(); n != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", n)
	}
}

func TestAuditSignUpEventCarriesRequestContext(t *testing.T) {
	sink := NewChannelSink(8)
	e := newTestEngine(t, auditConfig(), withAuditSink(sink))

	ctx := WithUserAgent(WithClientIP(context.Background(), "198.51.100.33"), "acct-test/1.0")
	res, err := e.SignUp(ctx, validSignUp("ctx@example.com"))
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	events := collectEvents(sink, 1)
	if len(events) != 1 {
		t.Fatal("expected audit event to be received")
	}
	ev := events[0]
	if ev.EventType != auditEventSignUpSuccess || !ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.UserID != res.User.ID {
		t.Fatalf("expected user %q, got %q", res.User.ID, ev.UserID)
	}
	if ev.IP != "198.51.100.33" || ev.UserAgent != "acct-test/1.0" {
		t.Fatalf("request context missing: ip=%q ua=%q", ev.IP, ev.UserAgent)
	}
	if ev.Provider != string(user.ProvenanceEmail) {
		t.Fatalf("expected provider email, got %q", ev.Provider)
	}
	if ev.Metadata[auditMetaSentEmail] != EmailSent.String() {
		t.Fatalf("expected sent_email=%q, got %q", EmailSent.String(), ev.Metadata[auditMetaSentEmail])
	}
}

func TestAuditDuplicateSignUpRecordsRegisteredBy(t *testing.T) {
	sink := NewChannelSink(8)
	e := newTestEngine(t, auditConfig(), withAuditSink(sink))

	mustSignUp(t, e, "dup@example.com")
	_, _ = e.SignUp(context.Background(), validSignUp("dup@example.com"))

	events := collectEvents(sink, 2)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	ev := events[1]
	if ev.EventType != auditEventSignUpDuplicate || ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Error != ErrRegisteredUser.Error() {
		t.Fatalf("expected error %q, got %q", ErrRegisteredUser.Error(), ev.Error)
	}
	if ev.Metadata[auditMetaRegisteredBy] != string(user.ProvenanceEmail) {
		t.Fatalf("expected registered_by email, got %v", ev.Metadata)
	}
}

func TestAuditNoSecretsInEvents(t *testing.T) {
	sink := NewChannelSink(32)
	e := newTestEngine(t, auditConfig(), withAuditSink(sink))
	ctx := context.Background()

	signed := mustSignUp(t, e, "secrets@example.com")
	if _, err := e.Login(ctx, LoginRequest{Email: "secrets@example.com", Password: "Abc123!@"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := e.Refresh(ctx, signed.RefreshToken); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	stored, err := e.store.FindByID(ctx, signed.User.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	needles := []string{
		"Abc123!@",
		signed.Token,
		signed.RefreshToken,
		stored.PasswordHash,
		stored.ConfirmationCode,
	}

	events := collectEvents(sink, 3)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for _, ev := range events {
		for _, needle := range needles {
			if needle == "" {
				continue
			}
			if strings.Contains(ev.Error, needle) {
				t.Fatalf("sensitive value leaked in audit error field of %s", ev.EventType)
			}
			for k, v := range ev.Metadata {
				if strings.Contains(k, needle) || strings.Contains(v, needle) {
					t.Fatalf("sensitive value leaked in audit metadata of %s", ev.EventType)
				}
			}
		}
	}
}

func TestAuditErrorCodeHidesStoreErrors(t *testing.T) {
	raw := errors.New("mongo: connection reset by 10.0.0.7:27017")

	if got := auditErrorCode(storeFailure(raw)); got != auditErrInternal {
		t.Fatalf("store failure leaked as %q", got)
	}
	if got := auditErrorCode(raw); got != auditErrInternal {
		t.Fatalf("raw error leaked as %q", got)
	}
	if got := auditErrorCode(newFailure(KindValidation, ErrIncorrectCode)); got != ErrIncorrectCode.Error() {
		t.Fatalf("expected %q, got %q", ErrIncorrectCode.Error(), got)
	}
}

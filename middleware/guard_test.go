package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/store/memory"
	"github.com/MrEthical07/goAccount/user"
)

func newGuardEngine(t *testing.T, accessTTL time.Duration) *goAccount.Engine {
	t.Helper()
	cfg := goAccount.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("middleware-access-secret-0123456789")
	cfg.JWT.RefreshSecret = []byte("middleware-refresh-secret-987654321")
	cfg.JWT.AccessTTL = accessTTL
	cfg.Password.Cost = 4
	cfg.Registry.SweepInterval = 0

	engine, err := goAccount.New().WithConfig(cfg).WithStore(memory.New()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func signUp(t *testing.T, engine *goAccount.Engine, email string) *goAccount.SignUpResult {
	t.Helper()
	res, err := engine.SignUp(context.Background(), goAccount.SignUpRequest{
		Email:    email,
		Password: "Abc123!@",
		Birthday: "1990-04-01",
		ZipCode:  "01000",
		Gender:   "female",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	return res
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env goAccount.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if env.OK || env.Err == nil {
		t.Fatalf("unexpected envelope %+v", env)
	}
	return env.Err.Message
}

func claimEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim, ok := ClaimFromContext(r.Context())
		if !ok {
			http.Error(w, "missing claim", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(claim.ID))
	})
}

func TestGuardAcceptsBearerAndRawTokens(t *testing.T) {
	engine := newGuardEngine(t, time.Hour)
	res := signUp(t, engine, "guard@example.com")
	h := Guard(engine)(claimEcho())

	for _, header := range []string{"Bearer " + res.Token, res.Token, "bearer " + res.Token} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK || rec.Body.String() != res.User.ID {
			t.Fatalf("header %q: status %d body %q", header[:7], rec.Code, rec.Body.String())
		}
	}
}

func TestGuardRejections(t *testing.T) {
	engine := newGuardEngine(t, time.Hour)
	res := signUp(t, engine, "reject@example.com")

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", "not_authorized"},
		{"garbage", "Bearer not-a-token", "not_authorized"},
		{"refresh token", "Bearer " + res.RefreshToken, "not_authorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Guard(engine)(claimEcho()).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if msg := decodeMessage(t, rec); msg != tt.want {
				t.Fatalf("message = %q, want %q", msg, tt.want)
			}
		})
	}
}

func TestGuardReportsExpiredToken(t *testing.T) {
	engine := newGuardEngine(t, time.Second)
	res := signUp(t, engine, "expired@example.com")
	time.Sleep(2100 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", res.Token)
	rec := httptest.NewRecorder()
	Guard(engine)(claimEcho()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "expired_token" {
		t.Fatalf("message = %q, want expired_token", msg)
	}
}

func TestRequireSelf(t *testing.T) {
	param := func(r *http.Request) string { return r.URL.Query().Get("id") }
	h := RequireSelf(param)(claimEcho())
	claim := &user.Claim{ID: "5f1d7f3e9b1e8a3c4d2b1a0f", Role: user.RoleUser}

	req := httptest.NewRequest(http.MethodGet, "/?id="+claim.ID, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithClaim(req.Context(), claim)))
	if rec.Code != http.StatusOK {
		t.Fatalf("own id rejected: %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/?id=5f1d7f3e9b1e8a3c4d2b1a00", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithClaim(req.Context(), claim)))
	if rec.Code != http.StatusUnauthorized || decodeMessage(t, rec) != "not_authorized" {
		t.Fatalf("foreign id admitted: %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(user.RoleAdmin)(claimEcho())

	tests := []struct {
		name   string
		claim  *user.Claim
		status int
		msg    string
	}{
		{"admin", &user.Claim{ID: "a", Role: user.RoleAdmin}, http.StatusOK, ""},
		{"user", &user.Claim{ID: "u", Role: user.RoleUser}, http.StatusUnauthorized, "role_not_authorized"},
		{"no claim", nil, http.StatusUnauthorized, "not_authorized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.claim != nil {
				req = req.WithContext(WithClaim(req.Context(), tt.claim))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.msg != "" && decodeMessage(t, rec) != tt.msg {
				t.Fatalf("unexpected message")
			}
		})
	}
}

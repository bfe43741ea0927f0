package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/password"
	"github.com/MrEthical07/goAccount/store/memory"
	"github.com/MrEthical07/goAccount/user"
)

type testServer struct {
	engine *goAccount.Engine
	store  *memory.Store
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := goAccount.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("httpapi-access-secret-0123456789ab")
	cfg.JWT.RefreshSecret = []byte("httpapi-refresh-secret-987654321ab")
	cfg.Password.Cost = 4
	cfg.Registry.SweepInterval = 0

	store := memory.New()
	engine, err := goAccount.New().WithConfig(cfg).WithStore(store).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})
	return &testServer{
		engine: engine,
		store:  store,
		router: NewRouter(engine, Options{Metrics: metrics}),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return rec, out
}

func signUpBody(email string) map[string]string {
	return map[string]string{
		"email":    email,
		"password": "Abc123!@",
		"birthday": "1990-04-01",
		"zipCode":  "01000",
		"gender":   "male",
	}
}

func errMessage(out map[string]any) string {
	e, _ := out["err"].(map[string]any)
	msg, _ := e["message"].(string)
	return msg
}

func (s *testServer) signUp(t *testing.T, email string) (id, token, refresh string) {
	t.Helper()
	rec, out := s.do(t, http.MethodPost, "/sign-up", "", signUpBody(email))
	if rec.Code != http.StatusOK {
		t.Fatalf("sign-up status %d: %s", rec.Code, rec.Body.String())
	}
	u := out["user"].(map[string]any)
	refresh, ok := out["refreshToken"].(string)
	if !ok || refresh == "" {
		t.Fatalf("sign-up response has no refreshToken: %v", out)
	}
	return u["_id"].(string), out["token"].(string), refresh
}

func TestSignUpLoginAndRefresh(t *testing.T) {
	s := newTestServer(t)
	id, _, refresh := s.signUp(t, "http@example.com")

	rec, out := s.do(t, http.MethodPost, "/sign-up", "", signUpBody("http@example.com"))
	if rec.Code != http.StatusBadRequest || errMessage(out) != "registered_user" {
		t.Fatalf("duplicate sign-up: %d %v", rec.Code, out)
	}

	rec, out = s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "http@example.com", "password": "Abc123!@"})
	if rec.Code != http.StatusOK || out["ok"] != true || out["refreshToken"] == nil {
		t.Fatalf("login: %d %v", rec.Code, out)
	}

	rec, out = s.do(t, http.MethodPost, "/refresh-token", "", map[string]string{"refreshToken": refresh})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: %d %v", rec.Code, out)
	}
	if u := out["user"].(map[string]any); u["_id"] != id {
		t.Fatalf("refresh returned user %v", u["_id"])
	}
	rotated, ok := out["refreshToken"].(string)
	if !ok || rotated == "" {
		t.Fatalf("refresh response has no refreshToken: %v", out)
	}
	rec, out = s.do(t, http.MethodPost, "/refresh-token", "", map[string]string{"refreshToken": rotated})
	if rec.Code != http.StatusOK {
		t.Fatalf("rotated refresh: %d %v", rec.Code, out)
	}

	rec, out = s.do(t, http.MethodPost, "/refresh-token", "", map[string]string{})
	if rec.Code != http.StatusUnauthorized || errMessage(out) != "not_authorized_final" {
		t.Fatalf("empty refresh: %d %v", rec.Code, out)
	}
}

func TestSignUpValidationEnvelope(t *testing.T) {
	s := newTestServer(t)

	body := signUpBody("weak@example.com")
	body["password"] = "short"
	rec, out := s.do(t, http.MethodPost, "/sign-up", "", body)
	if rec.Code != http.StatusBadRequest || errMessage(out) != "invalid_password" {
		t.Fatalf("weak password: %d %v", rec.Code, out)
	}

	rec, out = s.do(t, http.MethodPost, "/sign-up", "", nil)
	e := out["err"].(map[string]any)
	if rec.Code != http.StatusBadRequest || e["field"] != "email" || e["required"] != true {
		t.Fatalf("empty body: %d %v", rec.Code, out)
	}

	rec, out = s.do(t, http.MethodPost, "/sign-up", "", "{not json")
	if rec.Code != http.StatusBadRequest || errMessage(out) != "invalid_body" {
		t.Fatalf("malformed body: %d %v", rec.Code, out)
	}
}

func TestProtectedRoutes(t *testing.T) {
	s := newTestServer(t)
	id, token, _ := s.signUp(t, "self@example.com")
	otherID, _, _ := s.signUp(t, "other@example.com")

	rec, out := s.do(t, http.MethodGet, "/users/"+id, "", nil)
	if rec.Code != http.StatusUnauthorized || errMessage(out) != "not_authorized" {
		t.Fatalf("anonymous get: %d %v", rec.Code, out)
	}

	rec, _ = s.do(t, http.MethodGet, "/users/"+otherID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get other user: %d", rec.Code)
	}

	rec, out = s.do(t, http.MethodPut, "/users/"+otherID, token, map[string]string{"zipCode": "99999"})
	if rec.Code != http.StatusUnauthorized || errMessage(out) != "not_authorized" {
		t.Fatalf("foreign update: %d %v", rec.Code, out)
	}

	rec, out = s.do(t, http.MethodPut, "/users/"+id, token, map[string]string{"zipCode": "99999", "cellPhone": "5559998888"})
	if u := out["user"].(map[string]any); rec.Code != http.StatusOK || u["zipCode"] != "99999" || u["cellPhone"] != "5559998888" {
		t.Fatalf("own update: %d %v", rec.Code, out)
	}

	rec, out = s.do(t, http.MethodGet, "/users", token, nil)
	if rec.Code != http.StatusUnauthorized || errMessage(out) != "role_not_authorized" {
		t.Fatalf("non-admin listing: %d %v", rec.Code, out)
	}
}

func TestAdminListsUsers(t *testing.T) {
	s := newTestServer(t)
	s.signUp(t, "member@example.com")

	hasher, err := password.NewBcrypt(password.Config{Cost: 4})
	if err != nil {
		t.Fatalf("NewBcrypt: %v", err)
	}
	hash, err := hasher.Hash("Admin123!")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if _, err := s.store.Create(context.Background(), &user.User{
		Email:        "admin@example.com",
		Nickname:     "admin-example-com",
		PasswordHash: hash,
		Role:         user.RoleAdmin,
		Provenance:   user.ProvenanceEmail,
	}); err != nil {
		t.Fatalf("Create admin: %v", err)
	}

	_, out := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "admin@example.com", "password": "Admin123!"})
	token, _ := out["token"].(string)
	if token == "" {
		t.Fatalf("admin login failed: %v", out)
	}

	rec, out := s.do(t, http.MethodGet, "/users", token, nil)
	if rec.Code != http.StatusOK || out["count"] != float64(2) {
		t.Fatalf("listing: %d %v", rec.Code, out)
	}
}

func TestPreferencesPromotionsAndConfirmation(t *testing.T) {
	s := newTestServer(t)
	id, token, _ := s.signUp(t, "prefs@example.com")

	rec, out := s.do(t, http.MethodPut, "/users/"+id+"/preferences/drinks", token, map[string]any{
		"favoriteDrinks": []user.Favorite{{ID: "1", Name: "horchata"}},
	})
	drinks, _ := out["user"].(map[string]any)["favoriteDrinks"].([]any)
	if rec.Code != http.StatusOK || len(drinks) != 1 {
		t.Fatalf("preferences: %d %v", rec.Code, out)
	}

	rec, out = s.do(t, http.MethodPut, "/users/"+id+"/preferences/desserts", token, map[string]any{})
	if rec.Code != http.StatusBadRequest || errMessage(out) != "invalid_preferences" {
		t.Fatalf("unknown preferences: %d %v", rec.Code, out)
	}

	promo := user.Promotion{Code: "WELCOME10", Name: "Welcome", Type: "percent", Value: "10"}
	if rec, out = s.do(t, http.MethodPost, "/users/"+id+"/promotions", token, promo); rec.Code != http.StatusOK {
		t.Fatalf("promotion: %d %v", rec.Code, out)
	}
	rec, out = s.do(t, http.MethodPost, "/users/"+id+"/promotions", token, promo)
	if rec.Code != http.StatusBadRequest || errMessage(out) != "existing_promotion" {
		t.Fatalf("duplicate promotion: %d %v", rec.Code, out)
	}

	stored, err := s.store.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	rec, out = s.do(t, http.MethodPost, "/users/"+id+"/confirmation-code", token, map[string]string{"confirmationCode": "000000"})
	if rec.Code != http.StatusBadRequest || errMessage(out) != "incorrect_code" {
		t.Fatalf("wrong code: %d %v", rec.Code, out)
	}
	rec, out = s.do(t, http.MethodPost, "/users/"+id+"/confirmation-code", token, map[string]string{"confirmationCode": stored.ConfirmationCode})
	if rec.Code != http.StatusOK || out["user"].(map[string]any)["confirm"] != true {
		t.Fatalf("confirm: %d %v", rec.Code, out)
	}
	if _, ok := out["sentEmail"]; ok {
		t.Fatalf("verification reported a delivery: %v", out)
	}

	rec, out = s.do(t, http.MethodPut, "/users/"+id+"/confirmation-code", token, map[string]string{"email": "prefs2@example.com"})
	if rec.Code != http.StatusOK || out["sentEmail"] != false {
		t.Fatalf("resend without sender: %d %v", rec.Code, out)
	}
}

func TestSocialSignInUnknownProvider(t *testing.T) {
	s := newTestServer(t)
	rec, out := s.do(t, http.MethodPost, "/sign-in/myspace", "", map[string]string{"token": "x"})
	if rec.Code != http.StatusBadRequest || errMessage(out) != "invalid_provider" {
		t.Fatalf("unknown provider: %d %v", rec.Code, out)
	}
}

func TestMetricsAndIndex(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "metrics" {
		t.Fatalf("metrics: %d %q", rec.Code, rec.Body.String())
	}
	rec, _ = s.do(t, http.MethodGet, "/", "", nil)
	if rec.Body.String() != "API users" {
		t.Fatalf("index: %q", rec.Body.String())
	}
}

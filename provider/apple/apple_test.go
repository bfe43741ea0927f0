package apple

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/goAccount/provider"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const testAppID = "com.example.app"

type staticKeys struct {
	set jwk.Set
	err error
}

func (s staticKeys) Keys(context.Context) (jwk.Set, error) {
	return s.set, s.err
}

func newSigningKey(t *testing.T, kid string) jwk.Key {
	t.Helper()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	key, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("jwk from raw: %v", err)
	}
	_ = key.Set(jwk.KeyIDKey, kid)
	_ = key.Set(jwk.AlgorithmKey, jwa.RS256)
	return key
}

func publicSet(t *testing.T, keys ...jwk.Key) jwk.Set {
	t.Helper()
	set := jwk.NewSet()
	for _, k := range keys {
		pub, err := jwk.PublicKeyOf(k)
		if err != nil {
			t.Fatalf("public key: %v", err)
		}
		if err := set.AddKey(pub); err != nil {
			t.Fatalf("add key: %v", err)
		}
	}
	return set
}

type tokenOpts struct {
	sub string
	aud string
	iss string
	exp time.Time
}

func signToken(t *testing.T, key jwk.Key, o tokenOpts) string {
	t.Helper()
	if o.iss == "" {
		o.iss = Issuer
	}
	if o.exp.IsZero() {
		o.exp = time.Now().Add(time.Hour)
	}
	tok, err := jwt.NewBuilder().
		Issuer(o.iss).
		Subject(o.sub).
		Audience([]string{o.aud}).
		IssuedAt(time.Now()).
		Expiration(o.exp).
		Claim("email", "apple@example.com").
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

func TestVerifyOrderedChecks(t *testing.T) {
	key := newSigningKey(t, "k1")
	impostor := newSigningKey(t, "k1")
	set := publicSet(t, key)

	valid := signToken(t, key, tokenOpts{sub: "apple-sub", aud: testAppID})

	tests := []struct {
		name  string
		keys  KeySource
		token string
		uid   string
		want  error
	}{
		{"garbage", staticKeys{set: set}, "not-a-token", "apple-sub", provider.ErrAppleTokenInvalid},
		{"key fetch fails", staticKeys{err: errors.New("dial tcp: timeout")}, valid, "apple-sub", provider.ErrAppleKeyUnavailable},
		{"unknown kid", staticKeys{set: publicSet(t, newSigningKey(t, "k2"))}, valid, "apple-sub", provider.ErrAppleKeyUnavailable},
		{"bad signature", staticKeys{set: set}, signToken(t, impostor, tokenOpts{sub: "apple-sub", aud: testAppID}), "apple-sub", provider.ErrAppleTokenInvalid},
		{"expired", staticKeys{set: set}, signToken(t, key, tokenOpts{sub: "apple-sub", aud: testAppID, exp: time.Now().Add(-time.Hour)}), "apple-sub", provider.ErrAppleTokenInvalid},
		{"wrong issuer", staticKeys{set: set}, signToken(t, key, tokenOpts{sub: "apple-sub", aud: testAppID, iss: "https://evil.example"}), "apple-sub", provider.ErrAppleTokenInvalid},
		{"subject mismatch", staticKeys{set: set}, valid, "someone-else", provider.ErrAppleUserMismatch},
		{"subject checked before audience", staticKeys{set: set}, signToken(t, key, tokenOpts{sub: "apple-sub", aud: "other.app"}), "someone-else", provider.ErrAppleUserMismatch},
		{"audience mismatch", staticKeys{set: set}, signToken(t, key, tokenOpts{sub: "apple-sub", aud: "other.app"}), "apple-sub", provider.ErrAppInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New(Config{AppID: testAppID, Keys: tt.keys})
			if err != nil {
				t.Fatalf("new verifier: %v", err)
			}
			_, err = v.Verify(context.Background(), provider.Credential{Token: tt.token, UserID: tt.uid})
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVerifySuccessAgainstRemoteJWKS(t *testing.T) {
	key := newSigningKey(t, "k1")
	body, err := json.Marshal(publicSet(t, key))
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	v, err := New(Config{AppID: testAppID, Keys: RemoteKeys{URL: srv.URL, Client: srv.Client()}})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	id, err := v.Verify(context.Background(), provider.Credential{
		Token:  signToken(t, key, tokenOpts{sub: "apple-sub", aud: testAppID}),
		UserID: "apple-sub",
		Email:  "fallback@example.com",
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Subject != "apple-sub" || id.Email != "apple@example.com" || id.Provider != "apple" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestNewRequiresAppID(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error")
	}
}

// Package apple verifies Sign in with Apple identity tokens against Apple's
// published JWKS.
package apple

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goAccount/provider"
	"github.com/MrEthical07/goAccount/user"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	DefaultKeysURL = "https://appleid.apple.com/auth/keys"
	Issuer         = "https://appleid.apple.com"
)

// KeySource yields the current Apple signing keys.
type KeySource interface {
	Keys(ctx context.Context) (jwk.Set, error)
}

// RemoteKeys fetches the JWKS over HTTP on every call.
type RemoteKeys struct {
	URL    string
	Client *http.Client
}

func (r RemoteKeys) Keys(ctx context.Context) (jwk.Set, error) {
	url := r.URL
	if url == "" {
		url = DefaultKeysURL
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	return jwk.Fetch(ctx, url, jwk.WithHTTPClient(client))
}

// Config configures a Verifier.
type Config struct {
	// AppID is the expected audience (bundle id or service id).
	AppID string
	Keys  KeySource
	Skew  time.Duration
	Now   func() time.Time
}

// Verifier checks Apple identity tokens. Checks run in a fixed order and the
// first failure is returned: key id, key lookup, signature and registered
// claims, subject, audience.
type Verifier struct {
	appID string
	keys  KeySource
	skew  time.Duration
	now   func() time.Time
}

func New(cfg Config) (*Verifier, error) {
	if strings.TrimSpace(cfg.AppID) == "" {
		return nil, errors.New("apple app id is required")
	}
	if cfg.Keys == nil {
		cfg.Keys = RemoteKeys{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Verifier{appID: cfg.AppID, keys: cfg.Keys, skew: cfg.Skew, now: cfg.Now}, nil
}

func (v *Verifier) Provider() user.Provenance {
	return user.ProvenanceApple
}

func (v *Verifier) Verify(ctx context.Context, cred provider.Credential) (provider.Identity, error) {
	kid, err := keyID(cred.Token)
	if err != nil {
		return provider.Identity{}, fmt.Errorf("%w: %v", provider.ErrAppleTokenInvalid, err)
	}

	set, err := v.keys.Keys(ctx)
	if err != nil {
		return provider.Identity{}, fmt.Errorf("%w: %v", provider.ErrAppleKeyUnavailable, err)
	}
	key, ok := set.LookupKeyID(kid)
	if !ok {
		return provider.Identity{}, fmt.Errorf("%w: unknown kid %q", provider.ErrAppleKeyUnavailable, kid)
	}

	tok, err := jwt.Parse([]byte(cred.Token),
		jwt.WithKey(jwa.RS256, key),
		jwt.WithValidate(true),
		jwt.WithIssuer(Issuer),
		jwt.WithAcceptableSkew(v.skew),
		jwt.WithClock(jwt.ClockFunc(v.now)),
	)
	if err != nil {
		return provider.Identity{}, fmt.Errorf("%w: %v", provider.ErrAppleTokenInvalid, err)
	}

	if tok.Subject() == "" || tok.Subject() != cred.UserID {
		return provider.Identity{}, provider.ErrAppleUserMismatch
	}

	found := false
	for _, aud := range tok.Audience() {
		if aud == v.appID {
			found = true
			break
		}
	}
	if !found {
		return provider.Identity{}, provider.ErrAppInvalid
	}

	email := ""
	if raw, ok := tok.Get("email"); ok {
		if s, ok := raw.(string); ok && s != "" {
			email = s
		}
	}

	return provider.Identity{
		Provider: user.ProvenanceApple,
		Subject:  tok.Subject(),
		Email:    email,
	}, nil
}

func keyID(token string) (string, error) {
	msg, err := jws.Parse([]byte(token))
	if err != nil {
		return "", err
	}
	sigs := msg.Signatures()
	if len(sigs) == 0 {
		return "", errors.New("no signatures")
	}
	kid := sigs[0].ProtectedHeaders().KeyID()
	if kid == "" {
		return "", errors.New("missing kid")
	}
	return kid, nil
}

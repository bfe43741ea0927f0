// Package facebook exchanges a Facebook user access token for the profile it
// belongs to via the Graph API.
package facebook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrEthical07/goAccount/provider"
	"github.com/MrEthical07/goAccount/user"
)

const DefaultGraphURL = "https://graph.facebook.com"

// Config configures a Verifier.
type Config struct {
	GraphURL string
	// AppSecret, when set, adds appsecret_proof to every Graph call.
	AppSecret string
	Client    *http.Client
}

// Verifier resolves tokens through GET /me?fields=id,email.
type Verifier struct {
	graphURL  string
	appSecret string
	client    *http.Client
}

func New(cfg Config) *Verifier {
	if cfg.GraphURL == "" {
		cfg.GraphURL = DefaultGraphURL
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	return &Verifier{
		graphURL:  strings.TrimRight(cfg.GraphURL, "/"),
		appSecret: cfg.AppSecret,
		client:    cfg.Client,
	}
}

func (v *Verifier) Provider() user.Provenance {
	return user.ProvenanceFacebook
}

type meResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (v *Verifier) Verify(ctx context.Context, cred provider.Credential) (provider.Identity, error) {
	if cred.Token == "" {
		return provider.Identity{}, provider.ErrRejected
	}

	q := url.Values{}
	q.Set("fields", "id,email")
	q.Set("access_token", cred.Token)
	if v.appSecret != "" {
		mac := hmac.New(sha256.New, []byte(v.appSecret))
		mac.Write([]byte(cred.Token))
		q.Set("appsecret_proof", hex.EncodeToString(mac.Sum(nil)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.graphURL+"/me?"+q.Encode(), nil)
	if err != nil {
		return provider.Identity{}, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return provider.Identity{}, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return provider.Identity{}, fmt.Errorf("%w: graph status %d", provider.ErrUnavailable, resp.StatusCode)
	}

	var me meResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&me); err != nil {
		return provider.Identity{}, fmt.Errorf("%w: decode graph response: %v", provider.ErrRejected, err)
	}
	if resp.StatusCode != http.StatusOK || me.Error != nil {
		msg := ""
		if me.Error != nil {
			msg = me.Error.Message
		}
		return provider.Identity{}, fmt.Errorf("%w: graph status %d %s", provider.ErrRejected, resp.StatusCode, msg)
	}
	if me.ID == "" {
		return provider.Identity{}, fmt.Errorf("%w: missing id", provider.ErrRejected)
	}

	return provider.Identity{Provider: user.ProvenanceFacebook, Subject: me.ID, Email: me.Email}, nil
}

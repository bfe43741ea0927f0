package jwt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goAccount/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens. It is embedded in the
// token so one can never be presented as the other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrTokenExpired is returned for a well-signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every other verification failure.
	ErrTokenInvalid = errors.New("token invalid")
)

// Config holds the two HS256 secrets and lifetimes.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
}

// Manager signs and verifies account tokens.
type Manager struct {
	config Config
	now    func() time.Time
}

// Claims is the payload of both token kinds.
type Claims struct {
	User user.Claim `json:"user"`
	Kind Kind       `json:"typ"`
	jwt.RegisteredClaims
}

// Pair is one issued access/refresh couple.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("refresh TTL must not be shorter than access TTL")
	}
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("access and refresh secrets are required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)

	return &Manager{config: cfg, now: time.Now}, nil
}

// Issue signs a fresh pair for claim. Every refresh token carries a unique
// jti, so two pairs issued within the same second never collide.
func (m *Manager) Issue(claim user.Claim) (Pair, error) {
	now := m.now()
	accessExp := now.Add(m.config.AccessTTL)
	refreshExp := now.Add(m.config.RefreshTTL)

	access, err := m.sign(claim, KindAccess, now, accessExp, m.config.AccessSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access: %w", err)
	}
	refresh, err := m.sign(claim, KindRefresh, now, refreshExp, m.config.RefreshSecret)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh: %w", err)
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *Manager) sign(claim user.Claim, kind Kind, now, exp time.Time, secret []byte) (string, error) {
	claims := Claims{
		User: claim,
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claim.ID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseAccess verifies signature, expiry and kind of an access token.
func (m *Manager) ParseAccess(token string) (*Claims, error) {
	return m.parse(token, KindAccess, m.config.AccessSecret)
}

// ParseRefresh verifies signature, expiry and kind of a refresh token.
func (m *Manager) ParseRefresh(token string) (*Claims, error) {
	return m.parse(token, KindRefresh, m.config.RefreshSecret)
}

func (m *Manager) parse(tokenStr string, kind Kind, secret []byte) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token", ErrTokenInvalid, kind)
	}
	if claims.User.ID == "" {
		return nil, fmt.Errorf("%w: missing user claim", ErrTokenInvalid)
	}
	if claims.IssuedAt != nil && claims.IssuedAt.Time.After(m.now().Add(m.config.MaxFutureIAT)) {
		return nil, fmt.Errorf("%w: iat too far in the future", ErrTokenInvalid)
	}

	return claims, nil
}

// DecodeUnverified reads the payload without checking the signature. The
// result is untrusted and must never drive an authorization decision.
func (m *Manager) DecodeUnverified(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return claims, nil
}

// RefreshTTL returns the configured refresh lifetime.
func (m *Manager) RefreshTTL() time.Duration {
	return m.config.RefreshTTL
}

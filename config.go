package goAccount

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/validate"
)

// Config is the full engine configuration.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	JWT       JWTConfig
	Registry  RegistryConfig
	Password  PasswordConfig
	Policy    PolicyConfig
	Providers ProvidersConfig
	Email     EmailConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the HS256 secrets and lifetimes of the token pair.
// AccessSecret and RefreshSecret must differ.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
}

/*
====================================
REGISTRY CONFIG
====================================
*/

// RegistryConfig controls the refresh-token registry.
//
// When RequireRegistered is true, Refresh rejects a well-signed token that is
// absent from the registry. Registry write failures then fail token issuance
// instead of being logged.
type RegistryConfig struct {
	RedisPrefix       string
	SweepInterval     time.Duration
	RequireRegistered bool
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines the bcrypt work factor.
type PasswordConfig struct {
	Cost int
}

/*
====================================
POLICY CONFIG
====================================
*/

// CurrentPolicyVersion is the version of the canonical account policy.
const CurrentPolicyVersion = 2

// PolicyConfig is the versioned set of account rules.
type PolicyConfig struct {
	Version             int
	RequireBirthday     bool
	RequireZipCode      bool
	RequireGender       bool
	MinimumAge          int
	PasswordMinLength   int
	PasswordMaxLength   int
	PasswordSymbols     string
	AllowNicknameUpdate bool
}

func (p PolicyConfig) flows() flows.Policy {
	return flows.Policy{
		RequireBirthday: p.RequireBirthday,
		RequireZipCode:  p.RequireZipCode,
		RequireGender:   p.RequireGender,
		MinimumAge:      p.MinimumAge,
		Password: validate.PasswordPolicy{
			MinLength: p.PasswordMinLength,
			MaxLength: p.PasswordMaxLength,
			Symbols:   p.PasswordSymbols,
		},
	}
}

/*
====================================
PROVIDERS CONFIG
====================================
*/

// ProvidersConfig configures the social identity verifiers. Timeout bounds
// every verification call.
type ProvidersConfig struct {
	Timeout           time.Duration
	AppleAppID        string
	AppleKeysURL      string
	GoogleClientID    string
	FacebookGraphURL  string
	FacebookAppSecret string
}

/*
====================================
EMAIL CONFIG
====================================
*/

// EmailConfig configures confirmation-code delivery.
type EmailConfig struct {
	ServiceURL string
	Timeout    time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the canonical configuration without secrets.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:    time.Hour,
			RefreshTTL:   30 * 24 * time.Hour,
			MaxFutureIAT: 10 * time.Minute,
		},
		Registry: RegistryConfig{
			RedisPrefix:       "acct:rt",
			SweepInterval:     time.Minute,
			RequireRegistered: false,
		},
		Password: PasswordConfig{
			Cost: 10,
		},
		Policy: PolicyConfig{
			Version:             CurrentPolicyVersion,
			RequireBirthday:     true,
			RequireZipCode:      true,
			RequireGender:       true,
			MinimumAge:          15,
			PasswordMinLength:   8,
			PasswordMaxLength:   16,
			PasswordSymbols:     "!@#$%^&*",
			AllowNicknameUpdate: false,
		},
		Providers: ProvidersConfig{
			Timeout: 10 * time.Second,
		},
		Email: EmailConfig{
			Timeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error. Build calls it before
// wiring any component.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if len(c.JWT.AccessSecret) == 0 {
		return errors.New("JWT AccessSecret is required")
	}
	if len(c.JWT.RefreshSecret) == 0 {
		return errors.New("JWT RefreshSecret is required")
	}
	if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
		return errors.New("JWT AccessSecret and RefreshSecret must differ")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}
	if c.JWT.Audience != "" && strings.TrimSpace(c.JWT.Audience) == "" {
		return errors.New("JWT Audience must not be blank")
	}
	if c.JWT.MaxFutureIAT < 0 || c.JWT.MaxFutureIAT > 24*time.Hour {
		return errors.New("JWT MaxFutureIAT must be between 0 and 24h")
	}

	// Registry
	if strings.TrimSpace(c.Registry.RedisPrefix) == "" {
		return errors.New("Registry RedisPrefix must not be empty")
	}
	if c.Registry.SweepInterval < 0 {
		return errors.New("Registry SweepInterval must be >= 0")
	}

	// Password
	if c.Password.Cost < 4 || c.Password.Cost > 31 {
		return errors.New("Password Cost must be between 4 and 31")
	}

	// Policy
	if c.Policy.Version != CurrentPolicyVersion {
		return errors.New("Policy Version is not supported")
	}
	if c.Policy.MinimumAge < 0 {
		return errors.New("Policy MinimumAge must be >= 0")
	}
	if c.Policy.PasswordMinLength <= 0 || c.Policy.PasswordMaxLength < c.Policy.PasswordMinLength {
		return errors.New("Policy password length bounds are invalid")
	}
	if c.Policy.PasswordSymbols == "" {
		return errors.New("Policy PasswordSymbols must not be empty")
	}

	// Providers / Email
	if c.Providers.Timeout <= 0 {
		return errors.New("Providers Timeout must be > 0")
	}
	if c.Email.Timeout <= 0 {
		return errors.New("Email Timeout must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}

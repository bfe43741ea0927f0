package goAccount

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig is the environment surface of Config. Durations use Go syntax
// ("1h", "720h").
type envConfig struct {
	AccessSecret      string        `env:"PRIVATE_KEY"`
	RefreshSecret     string        `env:"PRIVATE_KEY_REFRESH"`
	AccessTTL         time.Duration `env:"EXPIRATION_TOKEN" envDefault:"1h"`
	RefreshTTL        time.Duration `env:"EXPIRATION_TOKEN_REFRESH" envDefault:"720h"`
	Issuer            string        `env:"TOKEN_ISSUER"`
	Audience          string        `env:"TOKEN_AUDIENCE"`
	RedisPrefix       string        `env:"REFRESH_REDIS_PREFIX" envDefault:"acct:rt"`
	RequireRegistered bool          `env:"REFRESH_REQUIRE_REGISTERED" envDefault:"false"`
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"10"`
	AllowNickname     bool          `env:"ALLOW_NICKNAME_UPDATE" envDefault:"false"`
	ProviderTimeout   time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	AppleAppID        string        `env:"APPLE_APP_ID"`
	AppleKeysURL      string        `env:"APPLE_KEYS_URL"`
	GoogleClientID    string        `env:"GOOGLE_CLIENT_ID"`
	FacebookGraphURL  string        `env:"FACEBOOK_GRAPH_URL"`
	FacebookAppSecret string        `env:"FACEBOOK_APP_SECRET"`
	EmailServiceURL   string        `env:"EMAIL_SERVICE_URL"`
	EmailTimeout      time.Duration `env:"EMAIL_SERVICE_TIMEOUT" envDefault:"5s"`
	AuditEnabled      bool          `env:"AUDIT_ENABLED" envDefault:"true"`
	MetricsEnabled    bool          `env:"METRICS_ENABLED" envDefault:"true"`
	LatencyHistograms bool          `env:"METRICS_LATENCY_HISTOGRAMS" envDefault:"false"`
}

// LoadConfigFromEnv starts from DefaultConfig and overlays the process
// environment. The result is not validated; Build does that.
func LoadConfigFromEnv() (Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := defaultConfig()
	cfg.JWT.AccessSecret = []byte(raw.AccessSecret)
	cfg.JWT.RefreshSecret = []byte(raw.RefreshSecret)
	cfg.JWT.AccessTTL = raw.AccessTTL
	cfg.JWT.RefreshTTL = raw.RefreshTTL
	cfg.JWT.Issuer = raw.Issuer
	cfg.JWT.Audience = raw.Audience
	cfg.Registry.RedisPrefix = raw.RedisPrefix
	cfg.Registry.RequireRegistered = raw.RequireRegistered
	cfg.Password.Cost = raw.BcryptCost
	cfg.Policy.AllowNicknameUpdate = raw.AllowNickname
	cfg.Providers = ProvidersConfig{
		Timeout:           raw.ProviderTimeout,
		AppleAppID:        raw.AppleAppID,
		AppleKeysURL:      raw.AppleKeysURL,
		GoogleClientID:    raw.GoogleClientID,
		FacebookGraphURL:  raw.FacebookGraphURL,
		FacebookAppSecret: raw.FacebookAppSecret,
	}
	cfg.Email = EmailConfig{ServiceURL: raw.EmailServiceURL, Timeout: raw.EmailTimeout}
	cfg.Audit.Enabled = raw.AuditEnabled
	cfg.Metrics.Enabled = raw.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = raw.MetricsEnabled && raw.LatencyHistograms
	return cfg, nil
}

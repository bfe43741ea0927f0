package goAccount

import (
	"testing"
	"time"
)

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func TestLintDefaultConfig(t *testing.T) {
	cfg := testConfig()
	codes := cfg.Lint().Codes()

	for _, code := range []string{"registry_optional", "bcrypt_cost_low", "email_disabled", "audit_disabled"} {
		if !containsCode(codes, code) {
			t.Errorf("expected warning %q, got %v", code, codes)
		}
	}
	for _, code := range []string{"leeway_large", "access_ttl_long", "refresh_ttl_long", "access_secret_short", "refresh_secret_short"} {
		if containsCode(codes, code) {
			t.Errorf("unexpected warning %q", code)
		}
	}
}

func TestLintHardenedConfigClean(t *testing.T) {
	cfg := testConfig()
	cfg.Registry.RequireRegistered = true
	cfg.Password.Cost = 12
	cfg.Email.ServiceURL = "http://mail.internal/send"
	cfg.Audit.Enabled = true

	if ws := cfg.Lint(); len(ws) != 0 {
		t.Fatalf("expected no warnings, got %v", ws.Codes())
	}
}

func TestLintFlagsRiskySettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{"large leeway", func(c *Config) { c.JWT.Leeway = 90 * time.Second }, "leeway_large"},
		{"long access ttl", func(c *Config) { c.JWT.AccessTTL = 48 * time.Hour }, "access_ttl_long"},
		{"long refresh ttl", func(c *Config) { c.JWT.RefreshTTL = 120 * 24 * time.Hour }, "refresh_ttl_long"},
		{"short access secret", func(c *Config) { c.JWT.AccessSecret = []byte("short") }, "access_secret_short"},
		{"short refresh secret", func(c *Config) { c.JWT.RefreshSecret = []byte("tiny") }, "refresh_secret_short"},
		{"nickname updates", func(c *Config) { c.Policy.AllowNicknameUpdate = true }, "nickname_update_enabled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if codes := cfg.Lint().Codes(); !containsCode(codes, tt.code) {
				t.Fatalf("expected %q in %v", tt.code, codes)
			}
		})
	}
}

func TestLintNeverMutates(t *testing.T) {
	cfg := testConfig()
	before := cloneConfig(cfg)
	_ = cfg.Lint()
	if cfg.Registry != before.Registry || cfg.Policy != before.Policy || cfg.JWT.AccessTTL != before.JWT.AccessTTL {
		t.Fatal("Lint modified the config")
	}
}

package goAccount

import "time"

// LintWarning is a configuration that validates but is unusual for production.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of Config.Lint.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// Lint reports settings that are valid but worth a second look. It never
// fails; Validate is the gate.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code, msg string) {
		ws = append(ws, LintWarning{Code: code, Message: msg})
	}

	if c.JWT.Leeway > time.Minute {
		add("leeway_large", "JWT leeway above 1m widens the replay window of expired tokens")
	}
	if c.JWT.AccessTTL > 24*time.Hour {
		add("access_ttl_long", "access tokens live longer than a day")
	}
	if c.JWT.RefreshTTL > 90*24*time.Hour {
		add("refresh_ttl_long", "refresh tokens live longer than 90 days")
	}
	if len(c.JWT.AccessSecret) > 0 && len(c.JWT.AccessSecret) < 32 {
		add("access_secret_short", "access secret is shorter than 32 bytes")
	}
	if len(c.JWT.RefreshSecret) > 0 && len(c.JWT.RefreshSecret) < 32 {
		add("refresh_secret_short", "refresh secret is shorter than 32 bytes")
	}
	if !c.Registry.RequireRegistered {
		add("registry_optional", "refresh accepts well-signed tokens missing from the registry")
	}
	if c.Password.Cost < 10 {
		add("bcrypt_cost_low", "bcrypt cost below 10")
	}
	if c.Email.ServiceURL == "" {
		add("email_disabled", "no email service configured; confirmation codes are stored but never sent")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", "audit events are not recorded")
	}
	if c.Policy.AllowNicknameUpdate {
		add("nickname_update_enabled", "nicknames may change after sign-up")
	}
	return ws
}

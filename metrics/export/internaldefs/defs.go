package internaldefs

import (
	goAccount "github.com/MrEthical07/goAccount"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const (
	AuditDroppedName = "goaccount_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: goAccount.MetricSignUpSuccess, Name: "goaccount_sign_up_success_total", Help: "Accounts created by email sign-up."},
	{ID: goAccount.MetricSignUpFailure, Name: "goaccount_sign_up_failure_total", Help: "Sign-up attempts rejected by validation or the store."},
	{ID: goAccount.MetricSignUpDuplicate, Name: "goaccount_sign_up_duplicate_total", Help: "Sign-up attempts for an already registered email."},
	{ID: goAccount.MetricLoginSuccess, Name: "goaccount_login_success_total", Help: "Successful password logins."},
	{ID: goAccount.MetricLoginFailure, Name: "goaccount_login_failure_total", Help: "Failed password logins."},
	{ID: goAccount.MetricSocialSignInSuccess, Name: "goaccount_social_sign_in_success_total", Help: "Successful social sign-ins, new and returning."},
	{ID: goAccount.MetricSocialSignUp, Name: "goaccount_social_sign_up_total", Help: "Accounts created by a social sign-in."},
	{ID: goAccount.MetricSocialSignInFailure, Name: "goaccount_social_sign_in_failure_total", Help: "Failed social sign-ins."},
	{ID: goAccount.MetricProviderRejected, Name: "goaccount_provider_rejected_total", Help: "Credentials refused by an identity provider."},
	{ID: goAccount.MetricRefreshSuccess, Name: "goaccount_refresh_success_total", Help: "Successful token refreshes."},
	{ID: goAccount.MetricRefreshFailure, Name: "goaccount_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: goAccount.MetricRefreshUserMissing, Name: "goaccount_refresh_user_missing_total", Help: "Refresh tokens naming an account that no longer exists."},
	{ID: goAccount.MetricConfirmationSuccess, Name: "goaccount_confirmation_success_total", Help: "Confirmation codes accepted."},
	{ID: goAccount.MetricConfirmationFailure, Name: "goaccount_confirmation_failure_total", Help: "Confirmation codes rejected."},
	{ID: goAccount.MetricConfirmationSent, Name: "goaccount_confirmation_sent_total", Help: "Confirmation codes handed to the email service."},
	{ID: goAccount.MetricConfirmationUndelivered, Name: "goaccount_confirmation_undelivered_total", Help: "Confirmation codes generated but not delivered."},
	{ID: goAccount.MetricProfileUpdate, Name: "goaccount_profile_update_total", Help: "Profile updates applied."},
	{ID: goAccount.MetricPreferencesUpdate, Name: "goaccount_preferences_update_total", Help: "Favorite drink or dish lists replaced."},
	{ID: goAccount.MetricPromotionAdded, Name: "goaccount_promotion_added_total", Help: "Promotions attached to accounts."},
	{ID: goAccount.MetricPromotionDuplicate, Name: "goaccount_promotion_duplicate_total", Help: "Promotions rejected as already present."},
}

var HistogramDefs = []HistogramDef{
	{ID: goAccount.MetricValidateLatency, Name: "goaccount_validate_latency_seconds", Help: "Access token validation latency."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine
// keeps one extra overflow bucket.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBounds is HistogramUpperBounds rendered as le labels, plus +Inf.
var HistogramBounds = []string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}

// NormalizeBuckets copies raw into a fixed array, zero filling short input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

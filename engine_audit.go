package goAccount

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/user"
)

const (
	auditEventSignUpSuccess        = "sign_up_success"
	auditEventSignUpFailure        = "sign_up_failure"
	auditEventSignUpDuplicate      = "sign_up_duplicate"
	auditEventLoginSuccess         = "login_success"
	auditEventLoginFailure         = "login_failure"
	auditEventSocialSignInSuccess  = "social_sign_in_success"
	auditEventSocialSignUp         = "social_sign_up"
	auditEventSocialSignInFailure  = "social_sign_in_failure"
	auditEventRefreshSuccess       = "refresh_success"
	auditEventRefreshFailure       = "refresh_failure"
	auditEventConfirmationSuccess  = "confirmation_verify_success"
	auditEventConfirmationFailure  = "confirmation_verify_failure"
	auditEventConfirmationResend   = "confirmation_resend"
	auditEventProfileUpdate        = "profile_update"
	auditEventPreferencesUpdate    = "preferences_update"
	auditEventPromotionAdded       = "promotion_added"
	auditEventPromotionRejected    = "promotion_rejected"
	auditErrInternal               = "internal_error"
	auditMetaRegisteredBy          = "registered_by"
	auditMetaSentEmail             = "sent_email"
	auditMetaClaimedUnverifiedUser = "claimed_user_id"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	provenance user.Provenance,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventType: eventType,
		UserID:    userID,
		Provider:  string(provenance),
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = auditErrorCode(err)
	}

	e.audit.Emit(ctx, event)
}

// auditErrorCode reduces err to its public message so raw store errors never
// reach the audit trail.
func auditErrorCode(err error) string {
	var f *Failure
	if errors.As(err, &f) && f.Kind != KindStore {
		return f.Err.Error()
	}
	for sentinel := range sentinelKinds {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return auditErrInternal
}

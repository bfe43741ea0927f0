package goAccount

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/provider"
	"github.com/MrEthical07/goAccount/user"
	"go.uber.org/zap"
)

// SocialSignIn verifies a provider credential and logs the account in,
// creating it on first use. SignUp in the result reports creation.
//
// Apple failures surface as ErrAppleKeyUnavailable, ErrAppleTokenInvalid,
// ErrAppleUserMismatch or ErrAppInvalid. A Google or Facebook rejection is
// ErrNotAuthorized with KindForbidden, as is a returning sign-in whose
// provider subject did not create the account. An email owned by another provenance
// fails with ErrRegisteredUser and nothing is written.
func (e *Engine) SocialSignIn(ctx context.Context, req SocialSignInRequest) (*SocialSignInResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunSocialSignIn(ctx, req.Provider, provider.Credential{
		Token:  req.Token,
		UserID: req.UserID,
		Email:  req.Email,
	}, e.flowDeps.Social)

	if res.Failure == flows.SocialFailureNone {
		event, metric := auditEventSocialSignInSuccess, MetricSocialSignInSuccess
		if res.Created {
			event, metric = auditEventSocialSignUp, MetricSocialSignUp
		}
		e.metricInc(metric)
		e.emitAudit(ctx, event, true, res.User.ID, res.Provider, nil, nil)
		return &SocialSignInResult{
			OK:           true,
			User:         res.User,
			Token:        res.Pair.AccessToken,
			RefreshToken: res.Pair.RefreshToken,
			SignUp:       res.Created,
		}, nil
	}

	var err error
	userID := ""
	if res.User != nil {
		userID = res.User.ID
	}
	switch res.Failure {
	case flows.SocialFailureUnknownProvider:
		err = &Failure{Kind: KindValidation, Err: ErrInvalidProvider, Field: "provider"}
	case flows.SocialFailureVerify:
		err = e.providerFailure(res.Provider, res.Err)
	case flows.SocialFailureValidation:
		err = validationFailure(res.Err)
	case flows.SocialFailureSubjectMismatch:
		e.logger.Warn("provider subject does not own account", zap.Stringer("provider", res.Provider), zap.String("user_id", userID))
		err = &Failure{Kind: KindForbidden, Err: ErrNotAuthorized, Provider: res.Provider}
	case flows.SocialFailureRegistered:
		f := registeredFailure("email", res.RegisteredBy)
		f.Provider = res.Provider
		err = f
	default:
		err = e.storeFailure("social sign in", userID, res.Err)
	}

	e.metricInc(MetricSocialSignInFailure)
	e.emitAudit(ctx, auditEventSocialSignInFailure, false, userID, res.Provider, err, nil)
	return nil, err
}

func (e *Engine) providerFailure(p user.Provenance, err error) error {
	e.metricInc(MetricProviderRejected)
	e.logger.Info("provider rejected credential", zap.Stringer("provider", p), zap.Error(err))

	switch {
	case errors.Is(err, provider.ErrAppleKeyUnavailable):
		return &Failure{Kind: KindExternal, Err: ErrAppleKeyUnavailable, Provider: p}
	case errors.Is(err, provider.ErrAppleTokenInvalid):
		return &Failure{Kind: KindAuthentication, Err: ErrAppleTokenInvalid, Provider: p}
	case errors.Is(err, provider.ErrAppleUserMismatch):
		return &Failure{Kind: KindAuthentication, Err: ErrAppleUserMismatch, Provider: p}
	case errors.Is(err, provider.ErrAppInvalid):
		return &Failure{Kind: KindAuthentication, Err: ErrAppInvalid, Provider: p}
	case errors.Is(err, provider.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: KindExternal, Err: ErrProviderUnavailable, Provider: p}
	default:
		return &Failure{Kind: KindForbidden, Err: ErrNotAuthorized, Provider: p}
	}
}

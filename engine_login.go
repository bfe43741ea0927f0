package goAccount

import (
	"context"

	"github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/user"
	"go.uber.org/zap"
)

// Login authenticates an email account.
//
// An unknown email fails with ErrEmailNotFound, an account created through a
// social provider with ErrRegisteredUser naming that provider, and a wrong
// password with ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunLogin(ctx, req.Email, req.Password, e.flowDeps.Login)

	var err error
	userID := ""
	if res.User != nil {
		userID = res.User.ID
	}
	switch res.Failure {
	case flows.LoginFailureNone:
		e.metricInc(MetricLoginSuccess)
		e.emitAudit(ctx, auditEventLoginSuccess, true, userID, user.ProvenanceEmail, nil, nil)
		return &LoginResult{
			OK:           true,
			User:         res.User,
			Token:        res.Pair.AccessToken,
			RefreshToken: res.Pair.RefreshToken,
		}, nil
	case flows.LoginFailureValidation:
		err = validationFailure(res.Err)
	case flows.LoginFailureEmailNotFound:
		err = &Failure{Kind: KindValidation, Err: ErrEmailNotFound, Field: "email"}
	case flows.LoginFailureRegistered:
		err = registeredFailure("email", res.RegisteredBy)
	case flows.LoginFailureCredentials:
		if res.Err != nil {
			e.logger.Warn("password verification error", zap.String("user_id", userID), zap.Error(res.Err))
		}
		err = &Failure{Kind: KindAuthentication, Err: ErrInvalidCredentials, Field: "password"}
	default:
		err = e.storeFailure("login", userID, res.Err)
	}

	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, userID, user.ProvenanceEmail, err, nil)
	return nil, err
}

package goAccount

import (
	"context"

	"github.com/MrEthical07/goAccount/internal/flows"
	"github.com/MrEthical07/goAccount/user"
	"go.uber.org/zap"
)

// SignUp registers an email account, issues a token pair and attempts to
// deliver a confirmation code.
//
// An email that already exists fails with ErrRegisteredUser and the
// provenance of the existing account; nothing is written. Delivery problems
// never fail the call and are reported in SentEmail.
func (e *Engine) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunSignUp(ctx, flows.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		Birthday:  req.Birthday,
		ZipCode:   req.ZipCode,
		Gender:    req.Gender,
		CellPhone: req.CellPhone,
	}, e.flowDeps.SignUp)

	switch res.Failure {
	case flows.SignUpFailureNone:
	case flows.SignUpFailureValidation:
		err := validationFailure(res.Err)
		e.metricInc(MetricSignUpFailure)
		e.emitAudit(ctx, auditEventSignUpFailure, false, "", user.ProvenanceEmail, err, nil)
		return nil, err
	case flows.SignUpFailureRegistered:
		err := registeredFailure("email", res.RegisteredBy)
		e.metricInc(MetricSignUpDuplicate)
		e.emitAudit(ctx, auditEventSignUpDuplicate, false, "", user.ProvenanceEmail, err, func() map[string]string {
			return map[string]string{auditMetaRegisteredBy: string(err.RegisteredBy)}
		})
		return nil, err
	default:
		e.metricInc(MetricSignUpFailure)
		userID := ""
		if res.User != nil {
			userID = res.User.ID
		}
		err := e.storeFailure("sign up", userID, res.Err)
		e.emitAudit(ctx, auditEventSignUpFailure, false, userID, user.ProvenanceEmail, err, nil)
		return nil, err
	}

	sent := e.recordDelivery(ctx, res.User, res.Delivery)
	e.metricInc(MetricSignUpSuccess)
	e.emitAudit(ctx, auditEventSignUpSuccess, true, res.User.ID, user.ProvenanceEmail, nil, func() map[string]string {
		return map[string]string{auditMetaSentEmail: sent.String()}
	})
	e.logger.Info("account created", zap.String("user_id", res.User.ID), zap.Stringer("sent_email", sent))

	return &SignUpResult{
		OK:           true,
		User:         res.User,
		Token:        res.Pair.AccessToken,
		RefreshToken: res.Pair.RefreshToken,
		SentEmail:    sent,
	}, nil
}

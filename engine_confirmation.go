package goAccount

import (
	"context"

	"github.com/MrEthical07/goAccount/internal/flows"
)

// VerifyConfirmationCode consumes the pending code of userID and marks the
// account confirmed. The comparison and the clear are one store operation,
// so a code is accepted at most once; a mismatch changes nothing and fails
// with ErrIncorrectCode.
func (e *Engine) VerifyConfirmationCode(ctx context.Context, userID, code string) (*UserResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunVerifyCode(ctx, userID, code, e.flowDeps.Confirmation)

	var err error
	switch res.Failure {
	case flows.ConfirmationFailureNone:
		e.metricInc(MetricConfirmationSuccess)
		e.emitAudit(ctx, auditEventConfirmationSuccess, true, userID, res.User.Provenance, nil, nil)
		return &UserResult{OK: true, User: res.User}, nil
	case flows.ConfirmationFailureValidation:
		err = validationFailure(res.Err)
	case flows.ConfirmationFailureUserNotFound:
		err = newFailure(KindNotFound, ErrUserNotFound)
	case flows.ConfirmationFailureIncorrectCode:
		err = &Failure{Kind: KindValidation, Err: ErrIncorrectCode, Field: "confirmationCode"}
	default:
		err = e.storeFailure("verify confirmation code", userID, res.Err)
	}

	e.metricInc(MetricConfirmationFailure)
	e.emitAudit(ctx, auditEventConfirmationFailure, false, userID, "", err, nil)
	return nil, err
}

// ResendConfirmationCode moves the account to newEmail and sends a fresh
// code there. authToken is forwarded to the email service. The email change
// stands even when delivery fails; SentEmail then reports "no_code".
func (e *Engine) ResendConfirmationCode(ctx context.Context, userID, newEmail, authToken string) (*ConfirmationResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunResendCode(ctx, userID, newEmail, authToken, e.flowDeps.Confirmation)

	var err error
	switch res.Failure {
	case flows.ConfirmationFailureNone:
		sent := e.recordDelivery(ctx, res.User, res.Delivery)
		e.emitAudit(ctx, auditEventConfirmationResend, true, userID, res.User.Provenance, nil, func() map[string]string {
			return map[string]string{auditMetaSentEmail: sent.String()}
		})
		return &ConfirmationResult{OK: true, User: res.User, SentEmail: sent}, nil
	case flows.ConfirmationFailureValidation:
		err = validationFailure(res.Err)
	case flows.ConfirmationFailureUserNotFound:
		err = newFailure(KindNotFound, ErrUserNotFound)
	case flows.ConfirmationFailureRegistered:
		err = registeredFailure("email", res.RegisteredBy)
	default:
		err = e.storeFailure("resend confirmation code", userID, res.Err)
	}

	e.emitAudit(ctx, auditEventConfirmationResend, false, userID, "", err, nil)
	return nil, err
}

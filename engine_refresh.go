package goAccount

import (
	"context"

	"github.com/MrEthical07/goAccount/internal/flows"
	"go.uber.org/zap"
)

// Refresh exchanges a refresh token for a new pair.
//
// The token's signature and expiry are checked with the refresh secret
// before its claim is used. A missing, invalid, expired or unregistered
// token fails with ErrNotAuthorizedFinal; a token naming an account that no
// longer exists fails with ErrUserNotFound. The presented token is replaced
// in the registry by the new one.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunRefresh(ctx, refreshToken, e.flowDeps.Refresh)

	var err error
	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.emitAudit(ctx, auditEventRefreshSuccess, true, res.User.ID, res.User.Provenance, nil, nil)
		return &RefreshResult{
			OK:           true,
			User:         res.User,
			Token:        res.Pair.AccessToken,
			RefreshToken: res.Pair.RefreshToken,
		}, nil
	case flows.RefreshFailureMissing,
		flows.RefreshFailureExpired,
		flows.RefreshFailureInvalid,
		flows.RefreshFailureNotRegistered:
		err = newFailure(KindAuthentication, ErrNotAuthorizedFinal)
	case flows.RefreshFailureUserNotFound:
		e.metricInc(MetricRefreshUserMissing)
		err = newFailure(KindNotFound, ErrUserNotFound)
	case flows.RefreshFailureRegistry:
		e.logger.Warn("refresh registry lookup failed", zap.String("user_id", res.ClaimedUserID), zap.Error(res.Err))
		err = storeFailure(res.Err)
	default:
		err = e.storeFailure("refresh", res.ClaimedUserID, res.Err)
	}

	e.metricInc(MetricRefreshFailure)
	verifiedID := res.ClaimedUserID
	if res.Failure == flows.RefreshFailureMissing ||
		res.Failure == flows.RefreshFailureExpired ||
		res.Failure == flows.RefreshFailureInvalid {
		verifiedID = ""
	}
	e.emitAudit(ctx, auditEventRefreshFailure, false, verifiedID, "", err, func() map[string]string {
		if verifiedID != "" || res.ClaimedUserID == "" {
			return nil
		}
		return map[string]string{auditMetaClaimedUnverifiedUser: res.ClaimedUserID}
	})
	return nil, err
}

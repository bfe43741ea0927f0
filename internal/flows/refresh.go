package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/user"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureExpired
	RefreshFailureInvalid
	RefreshFailureNotRegistered
	RefreshFailureRegistry
	RefreshFailureUserNotFound
	RefreshFailureStore
	RefreshFailureIssue
)

// RefreshResult carries either the rotated pair or failure metadata.
// ClaimedUserID is read without verification and is for audit only.
type RefreshResult struct {
	Failure       RefreshFailureKind
	Err           error
	ClaimedUserID string
	User          *user.User
	Pair          jwt.Pair
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	ParseRefresh      func(string) (*jwt.Claims, error)
	DecodeUnverified  func(string) (*jwt.Claims, error)
	RequireRegistered bool
	IsRegistered      func(context.Context, string) (bool, error)
	FindByID          func(context.Context, string) (*user.User, error)
	Rotate            func(ctx context.Context, presented string, claim user.Claim) (jwt.Pair, error)
}

// RunRefresh exchanges a refresh token for a new pair. The token signature
// and expiry are verified before its claim is used; the account it names
// must still exist.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if refreshToken == "" {
		return RefreshResult{Failure: RefreshFailureMissing}
	}

	claims, err := deps.ParseRefresh(refreshToken)
	if err != nil {
		res := RefreshResult{Failure: RefreshFailureInvalid, Err: err}
		if errors.Is(err, jwt.ErrTokenExpired) {
			res.Failure = RefreshFailureExpired
		}
		if deps.DecodeUnverified != nil {
			if c, derr := deps.DecodeUnverified(refreshToken); derr == nil {
				res.ClaimedUserID = c.User.ID
			}
		}
		return res
	}
	userID := claims.User.ID

	if deps.RequireRegistered && deps.IsRegistered != nil {
		ok, err := deps.IsRegistered(ctx, refreshToken)
		if err != nil {
			return RefreshResult{Failure: RefreshFailureRegistry, Err: err, ClaimedUserID: userID}
		}
		if !ok {
			return RefreshResult{Failure: RefreshFailureNotRegistered, ClaimedUserID: userID}
		}
	}

	u, err := deps.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return RefreshResult{Failure: RefreshFailureUserNotFound, ClaimedUserID: userID}
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err, ClaimedUserID: userID}
	}

	pair, err := deps.Rotate(ctx, refreshToken, u.Claim())
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, ClaimedUserID: userID, User: u}
	}
	return RefreshResult{ClaimedUserID: userID, User: u, Pair: pair}
}

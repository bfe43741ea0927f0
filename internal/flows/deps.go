package flows

import (
	"context"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/user"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates request methods to the matching flow implementation.
type Deps struct {
	SignUp       SignUpDeps
	Login        LoginDeps
	Social       SocialDeps
	Refresh      RefreshDeps
	Confirmation ConfirmationDeps
}

// IssueFunc signs a pair for claim and records its refresh token.
type IssueFunc func(ctx context.Context, claim user.Claim) (jwt.Pair, error)

// DeliverFunc generates, attaches and sends a confirmation code for u.
type DeliverFunc func(ctx context.Context, u *user.User, authToken string) Delivery

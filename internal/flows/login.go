package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/user"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureValidation
	LoginFailureEmailNotFound
	LoginFailureRegistered
	LoginFailureCredentials
	LoginFailureStore
	LoginFailureIssue
)

// LoginResult carries either the issued pair or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	RegisteredBy user.Provenance
	User         *user.User
	Pair         jwt.Pair
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Policy         Policy
	FindByEmail    func(context.Context, string) (*user.User, error)
	VerifyPassword func(plain, hash string) (bool, error)
	IssueTokens    IssueFunc
}

// RunLogin authenticates an email account. Accounts created through a social
// provider are refused before any password comparison.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	if err := ValidateCredentials(email, password, deps.Policy); err != nil {
		return LoginResult{Failure: LoginFailureValidation, Err: err}
	}

	u, err := deps.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return LoginResult{Failure: LoginFailureEmailNotFound}
		}
		return LoginResult{Failure: LoginFailureStore, Err: err}
	}

	if u.Provenance != user.ProvenanceEmail {
		return LoginResult{Failure: LoginFailureRegistered, RegisteredBy: u.Provenance, User: u}
	}

	ok, err := deps.VerifyPassword(password, u.PasswordHash)
	if err != nil || !ok {
		return LoginResult{Failure: LoginFailureCredentials, Err: err, User: u}
	}

	pair, err := deps.IssueTokens(ctx, u.Claim())
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, User: u}
	}
	return LoginResult{User: u, Pair: pair}
}

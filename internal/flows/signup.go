package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/user"
)

// SignUpFailureKind classifies sign-up failures for root-level mapping.
type SignUpFailureKind int

const (
	SignUpFailureNone SignUpFailureKind = iota
	SignUpFailureValidation
	SignUpFailureRegistered
	SignUpFailureHash
	SignUpFailureStore
	SignUpFailureIssue
)

// SignUpResult carries either the created account or failure metadata.
type SignUpResult struct {
	Failure      SignUpFailureKind
	Err          error
	RegisteredBy user.Provenance
	User         *user.User
	Pair         jwt.Pair
	Delivery     Delivery
}

// SignUpDeps captures sign-up dependencies.
type SignUpDeps struct {
	Policy       Policy
	Now          func() time.Time
	FindByEmail  func(context.Context, string) (*user.User, error)
	Create       func(context.Context, *user.User) (*user.User, error)
	HashPassword func(string) (string, error)
	IssueTokens  IssueFunc
	Deliver      DeliverFunc
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RunSignUp validates in, refuses emails that already exist, creates the
// account, issues tokens and attempts code delivery. Delivery never fails
// the sign-up.
func RunSignUp(ctx context.Context, in SignUpInput, deps SignUpDeps) SignUpResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	parsed, err := ValidateSignUp(in, deps.Policy, deps.Now())
	if err != nil {
		return SignUpResult{Failure: SignUpFailureValidation, Err: err}
	}

	existing, err := deps.FindByEmail(ctx, parsed.Email)
	switch {
	case err == nil:
		return SignUpResult{Failure: SignUpFailureRegistered, RegisteredBy: existing.Provenance, User: existing}
	case !errors.Is(err, user.ErrNotFound):
		return SignUpResult{Failure: SignUpFailureStore, Err: err}
	}

	hash, err := deps.HashPassword(parsed.Password)
	if err != nil {
		return SignUpResult{Failure: SignUpFailureHash, Err: err}
	}
	parsed.Password = ""

	nickname := user.NicknameFromEmail(parsed.Email)
	created, err := deps.Create(ctx, &user.User{
		Email:          parsed.Email,
		Nickname:       nickname,
		Username:       nickname,
		PasswordHash:   hash,
		Role:           user.RoleUser,
		Gender:         parsed.Gender,
		Birthday:       parsed.Birthday,
		ZipCode:        parsed.ZipCode,
		CellPhone:      parsed.CellPhone,
		Photo:          user.DefaultPhoto,
		Provenance:     user.ProvenanceEmail,
		FavoriteDrinks: []user.Favorite{},
		FavoriteDishes: []user.Favorite{},
		Promotions:     []user.Promotion{},
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return SignUpResult{Failure: SignUpFailureRegistered, RegisteredBy: registeredBy(ctx, deps.FindByEmail, parsed.Email)}
		}
		return SignUpResult{Failure: SignUpFailureStore, Err: err}
	}

	pair, err := deps.IssueTokens(ctx, created.Claim())
	if err != nil {
		return SignUpResult{Failure: SignUpFailureIssue, Err: err, User: created}
	}

	result := SignUpResult{User: created, Pair: pair}
	if deps.Deliver != nil {
		result.Delivery = deps.Deliver(ctx, created, pair.AccessToken)
	}
	return result
}

// registeredBy resolves the provenance of the account that won a create race.
func registeredBy(ctx context.Context, find func(context.Context, string) (*user.User, error), email string) user.Provenance {
	if u, err := find(ctx, email); err == nil {
		return u.Provenance
	}
	return user.ProvenanceEmail
}

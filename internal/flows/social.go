package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/provider"
	"github.com/MrEthical07/goAccount/user"
	"github.com/MrEthical07/goAccount/validate"
)

// SocialFailureKind classifies social sign-in failures for root-level mapping.
type SocialFailureKind int

const (
	SocialFailureNone SocialFailureKind = iota
	SocialFailureUnknownProvider
	SocialFailureVerify
	SocialFailureValidation
	SocialFailureRegistered
	SocialFailureSubjectMismatch
	SocialFailureHash
	SocialFailureStore
	SocialFailureIssue
)

// SocialResult carries the resolved account or failure metadata. Created is
// true when this call registered the account.
type SocialResult struct {
	Failure      SocialFailureKind
	Err          error
	Provider     user.Provenance
	RegisteredBy user.Provenance
	Identity     provider.Identity
	User         *user.User
	Pair         jwt.Pair
	Created      bool
}

// SocialDeps captures social sign-in dependencies.
type SocialDeps struct {
	Verifiers      map[user.Provenance]provider.Verifier
	Timeout        time.Duration
	FindByEmail    func(context.Context, string) (*user.User, error)
	Create         func(context.Context, *user.User) (*user.User, error)
	HashPassword   func(string) (string, error)
	VerifyPassword func(plain, hash string) (bool, error)
	IssueTokens    IssueFunc
}

// SyntheticSecret is the password material stored for provider accounts. It
// is never accepted by the email login path, which refuses social accounts
// before comparing passwords.
func SyntheticSecret(p user.Provenance, subject string) string {
	return string(p) + ":" + subject
}

// RunSocialSignIn verifies the provider credential, then logs the account in
// or creates it. An email already owned by another provenance is refused and
// nothing is written. A returning account must have been created by the same
// provider subject. The client-claimed email stands in only when the provider
// vouched for none.
func RunSocialSignIn(ctx context.Context, providerName string, cred provider.Credential, deps SocialDeps) SocialResult {
	p, err := user.ParseProvenance(providerName)
	if err != nil || !p.Social() {
		return SocialResult{Failure: SocialFailureUnknownProvider, Err: err}
	}
	verifier, ok := deps.Verifiers[p]
	if !ok || verifier == nil {
		return SocialResult{Failure: SocialFailureUnknownProvider, Provider: p}
	}

	vctx := ctx
	if deps.Timeout > 0 {
		var cancel context.CancelFunc
		vctx, cancel = context.WithTimeout(ctx, deps.Timeout)
		defer cancel()
	}
	identity, err := verifier.Verify(vctx, cred)
	if err != nil {
		return SocialResult{Failure: SocialFailureVerify, Err: err, Provider: p}
	}

	email := identity.Email
	if email == "" {
		email = cred.Email
	}
	if err := validate.Required("email", email); err != nil {
		return SocialResult{Failure: SocialFailureValidation, Err: err, Provider: p, Identity: identity}
	}
	if err := validate.Email(email); err != nil {
		return SocialResult{Failure: SocialFailureValidation, Err: err, Provider: p, Identity: identity}
	}
	email = normalizeEmail(email)

	existing, err := deps.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Provenance != p {
			return SocialResult{Failure: SocialFailureRegistered, Provider: p, RegisteredBy: existing.Provenance, Identity: identity, User: existing}
		}
		ok, err := deps.VerifyPassword(SyntheticSecret(p, identity.Subject), existing.PasswordHash)
		if err != nil {
			return SocialResult{Failure: SocialFailureHash, Err: err, Provider: p, Identity: identity, User: existing}
		}
		if !ok {
			return SocialResult{Failure: SocialFailureSubjectMismatch, Provider: p, Identity: identity, User: existing}
		}
		pair, err := deps.IssueTokens(ctx, existing.Claim())
		if err != nil {
			return SocialResult{Failure: SocialFailureIssue, Err: err, Provider: p, Identity: identity, User: existing}
		}
		return SocialResult{Provider: p, Identity: identity, User: existing, Pair: pair}
	case !errors.Is(err, user.ErrNotFound):
		return SocialResult{Failure: SocialFailureStore, Err: err, Provider: p, Identity: identity}
	}

	hash, err := deps.HashPassword(SyntheticSecret(p, identity.Subject))
	if err != nil {
		return SocialResult{Failure: SocialFailureHash, Err: err, Provider: p, Identity: identity}
	}

	nickname := user.NicknameFromEmail(email)
	created, err := deps.Create(ctx, &user.User{
		Email:          email,
		Nickname:       nickname,
		Username:       nickname,
		PasswordHash:   hash,
		Role:           user.RoleUser,
		Gender:         user.GenderFemale,
		Photo:          user.DefaultPhoto,
		Confirmed:      true,
		Provenance:     p,
		FavoriteDrinks: []user.Favorite{},
		FavoriteDishes: []user.Favorite{},
		Promotions:     []user.Promotion{},
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return SocialResult{Failure: SocialFailureRegistered, Provider: p, RegisteredBy: registeredBy(ctx, deps.FindByEmail, email), Identity: identity}
		}
		return SocialResult{Failure: SocialFailureStore, Err: err, Provider: p, Identity: identity}
	}

	pair, err := deps.IssueTokens(ctx, created.Claim())
	if err != nil {
		return SocialResult{Failure: SocialFailureIssue, Err: err, Provider: p, Identity: identity, User: created, Created: true}
	}
	return SocialResult{Provider: p, Identity: identity, User: created, Pair: pair, Created: true}
}

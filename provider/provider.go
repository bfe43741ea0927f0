// Package provider defines how external identity providers are consulted.
// Each sub-package verifies one provider's token and reports the stable
// subject and email it vouches for.
package provider

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/user"
)

var (
	// ErrRejected is returned when a provider refuses the token: bad
	// signature, expired, revoked, or issued for another application.
	ErrRejected = errors.New("provider rejected token")
	// ErrUnavailable is returned when the provider could not be reached.
	ErrUnavailable = errors.New("provider unavailable")

	// Apple-specific failures, in the order the checks run.
	ErrAppleKeyUnavailable = errors.New("apple signing key unavailable")
	ErrAppleTokenInvalid   = errors.New("apple token invalid")
	ErrAppleUserMismatch   = errors.New("apple user mismatch")
	ErrAppInvalid          = errors.New("apple audience invalid")
)

// Credential is what a client presents for social sign-in.
type Credential struct {
	Token string
	// UserID is the client-side provider user identifier. Apple requires it
	// to equal the token subject; other providers ignore it.
	UserID string
	// Email is the address the client claims. Verifiers never copy it into
	// the Identity; it may only name a brand-new account.
	Email string
}

// Identity is the provider-verified result. Email is empty when the provider
// did not vouch for one.
type Identity struct {
	Provider user.Provenance
	Subject  string
	Email    string
}

// Verifier checks one provider's tokens.
type Verifier interface {
	Provider() user.Provenance
	Verify(ctx context.Context, cred Credential) (Identity, error)
}

// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/goAccount/provider"
	"github.com/MrEthical07/goAccount/user"
	"google.golang.org/api/idtoken"
)

// ValidateFunc matches idtoken.Validate.
type ValidateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Verifier validates ID tokens issued for ClientID.
type Verifier struct {
	clientID string
	validate ValidateFunc
}

// New returns a Verifier. A nil validate uses idtoken.Validate, which fetches
// and caches Google's certificates.
func New(clientID string, validate ValidateFunc) (*Verifier, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, errors.New("google client id is required")
	}
	if validate == nil {
		validate = idtoken.Validate
	}
	return &Verifier{clientID: clientID, validate: validate}, nil
}

func (v *Verifier) Provider() user.Provenance {
	return user.ProvenanceGoogle
}

func (v *Verifier) Verify(ctx context.Context, cred provider.Credential) (provider.Identity, error) {
	if cred.Token == "" {
		return provider.Identity{}, provider.ErrRejected
	}
	payload, err := v.validate(ctx, cred.Token, v.clientID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return provider.Identity{}, fmt.Errorf("%w: %v", provider.ErrUnavailable, err)
		}
		return provider.Identity{}, fmt.Errorf("%w: %v", provider.ErrRejected, err)
	}

	sub := payload.Subject
	if sub == "" {
		sub, _ = payload.Claims["sub"].(string)
	}
	if sub == "" {
		return provider.Identity{}, fmt.Errorf("%w: missing subject", provider.ErrRejected)
	}
	email, _ := payload.Claims["email"].(string)

	return provider.Identity{Provider: user.ProvenanceGoogle, Subject: sub, Email: email}, nil
}

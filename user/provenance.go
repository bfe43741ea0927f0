package user

import "fmt"

// Provenance names the identity channel that created an account. An account
// has exactly one.
type Provenance string

const (
	ProvenanceEmail    Provenance = "email"
	ProvenanceApple    Provenance = "apple"
	ProvenanceFacebook Provenance = "facebook"
	ProvenanceGoogle   Provenance = "google"
)

// ParseProvenance maps a provider name to its Provenance.
func ParseProvenance(s string) (Provenance, error) {
	switch p := Provenance(s); p {
	case ProvenanceEmail, ProvenanceApple, ProvenanceFacebook, ProvenanceGoogle:
		return p, nil
	}
	return "", fmt.Errorf("unknown provenance %q", s)
}

// Social reports whether p is an external identity provider.
func (p Provenance) Social() bool {
	return p == ProvenanceApple || p == ProvenanceFacebook || p == ProvenanceGoogle
}

func (p Provenance) String() string {
	return string(p)
}

// ProvenanceFromFlags resolves records written with one boolean per channel.
// The email flag carries no information of its own and is not consulted.
// When several flags are set, apple wins over facebook, facebook over google,
// and anything else is email.
func ProvenanceFromFlags(apple, facebook, google bool) Provenance {
	switch {
	case apple:
		return ProvenanceApple
	case facebook:
		return ProvenanceFacebook
	case google:
		return ProvenanceGoogle
	default:
		return ProvenanceEmail
	}
}

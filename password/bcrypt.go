package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the work factor used when Config.Cost is zero.
const DefaultCost = 10

// ErrEmptyPassword is returned by Hash for an empty plaintext.
var ErrEmptyPassword = errors.New("empty password")

// Config controls the bcrypt work factor.
type Config struct {
	Cost int
}

// Bcrypt hashes and verifies passwords. It holds no mutable state and is safe
// for concurrent use.
type Bcrypt struct {
	cost int
}

// NewBcrypt validates cfg and returns a hasher.
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	cost := cfg.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash returns a salted bcrypt hash of plain.
func (b *Bcrypt) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	out, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether plain matches hash. A mismatch is (false, nil); a
// malformed hash is (false, err).
func (b *Bcrypt) Verify(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// Cost returns the configured work factor.
func (b *Bcrypt) Cost() int {
	return b.cost
}

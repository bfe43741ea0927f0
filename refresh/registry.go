package refresh

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/user"
)

// ErrNotFound is returned by Get for an unknown or expired token.
var ErrNotFound = errors.New("refresh token not registered")

// Entry is what the registry remembers about one issued refresh token.
type Entry struct {
	User     user.Claim `json:"user"`
	IssuedAt time.Time  `json:"issued_at"`
}

// Registry stores issued refresh tokens with a bounded lifetime.
type Registry interface {
	Put(ctx context.Context, token string, entry Entry, ttl time.Duration) error
	Get(ctx context.Context, token string) (Entry, error)
	Delete(ctx context.Context, token string) error
}

// Rotate registers next and then forgets prev. The new token is written
// first so a failure never leaves the caller with no registered token.
func Rotate(ctx context.Context, r Registry, prev, next string, entry Entry, ttl time.Duration) error {
	if err := r.Put(ctx, next, entry, ttl); err != nil {
		return err
	}
	if prev == "" || prev == next {
		return nil
	}
	return r.Delete(ctx, prev)
}

func tokenHash(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}

func tokenKey(token string) string {
	h := tokenHash(token)
	return hex.EncodeToString(h[:])
}

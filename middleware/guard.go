package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/user"
)

type claimContextKey struct{}

// ClaimFromContext returns the claim Guard stored for the request.
func ClaimFromContext(ctx context.Context) (*user.Claim, bool) {
	claim, ok := ctx.Value(claimContextKey{}).(*user.Claim)
	return claim, ok && claim != nil
}

// WithClaim stores claim the way Guard does. Handlers under test use it to
// skip token validation.
func WithClaim(ctx context.Context, claim *user.Claim) context.Context {
	return context.WithValue(ctx, claimContextKey{}, claim)
}

// Guard validates the access token in the Authorization header and stores its
// claim in the request context. Both "Bearer <token>" and a raw token are
// accepted.
func Guard(engine *goAccount.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, goAccount.ErrNotAuthorized)
				return
			}

			token, ok := authorizationToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, goAccount.ErrNotAuthorized)
				return
			}

			claim, err := engine.ValidateAccess(r.Context(), token)
			if err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaim(r.Context(), claim)))
		})
	}
}

// RequireSelf rejects requests whose path user id differs from the token's.
// param extracts the id from the request, typically a router URL parameter.
// It must run after Guard.
func RequireSelf(param func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim, ok := ClaimFromContext(r.Context())
			if !ok || param == nil || claim.ID != param(r) {
				WriteError(w, goAccount.ErrNotAuthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole admits only tokens carrying role. It must run after Guard.
func RequireRole(role user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim, ok := ClaimFromContext(r.Context())
			if !ok {
				WriteError(w, goAccount.ErrNotAuthorized)
				return
			}
			if claim.Role != role {
				WriteError(w, goAccount.ErrRoleNotAuthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteError renders err as the standard failure envelope.
func WriteError(w http.ResponseWriter, err error) {
	status, body := goAccount.ErrorResponse(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func authorizationToken(value string) (string, bool) {
	value = strings.TrimSpace(value)
	const bearer = "Bearer "
	if len(value) > len(bearer) && strings.EqualFold(value[:len(bearer)], bearer) {
		value = strings.TrimSpace(value[len(bearer):])
	}
	if value == "" || strings.ContainsAny(value, " \t") {
		return "", false
	}
	return value, true
}

// Package middleware adapts Engine token validation to net/http.
//
// # Guards
//
//   - [Guard] validates the access token and stores its claim in the context.
//   - [RequireSelf] admits only requests for the token's own user id.
//   - [RequireRole] admits only tokens carrying a given role.
//
// Rejections are written with [WriteError] in the same JSON envelope the
// Engine's failures use: expired_token and not_authorized for Guard,
// role_not_authorized for RequireRole, all with status 401.
//
// The package never parses JWTs itself; every decision comes from
// Engine.ValidateAccess or the claim it returned.
package middleware

// Package jwt issues and verifies the HS256 access/refresh token pairs that
// carry an account's {_id, role, nickname} claim. Access and refresh tokens are
// signed with distinct secrets and tagged with their kind.
package jwt

// Package refresh keeps the side registry of issued refresh tokens.
//
// # Storage model
//
// Entries are keyed by the SHA-256 of the token value; the plaintext token is
// never stored. Every entry carries a TTL equal to the token lifetime and is
// evicted once it lapses, so the registry is bounded by the number of live
// tokens.
//
// # Architecture boundaries
//
// Token signatures and expiry are verified by the jwt package before the
// registry is consulted. The registry only answers "was this token issued by
// us and not yet rotated away".
//
// # What this package must NOT do
//
//   - Parse or sign JWTs.
//   - Import the root goAccount package.
package refresh

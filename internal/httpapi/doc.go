// Package httpapi is the HTTP surface of the account service: a chi router
// whose handlers decode JSON, call the Engine and render its results or its
// failure envelope.
//
// Protected routes run behind middleware.Guard; per-user routes also require
// the token's own user id, and the user listing requires ADMIN_ROLE.
package httpapi

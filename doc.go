// Package goAccount provides the core of a user-account service: email
// sign-up and login, social sign-in through Apple, Google and Facebook,
// access/refresh token issuance and rotation, email confirmation codes, and
// profile, preference and promotion updates.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goAccount is the public surface. It exposes [Engine], [Builder], [Config],
// request and result types, and the error taxonomy ([ErrorKind], [Failure],
// [ErrorResponse]). Flow orchestration and audit dispatch live under
// internal/. Accounts are persisted through [user.Store]; store/mongo and
// store/memory implement it.
//
// # What this package must NOT do
//
//   - Expose password hashes, confirmation codes or raw store errors to callers.
//   - Trust a refresh token's claim before its signature and expiry are verified.
//   - Import any sub-package that re-imports goAccount (no import cycles).
package goAccount

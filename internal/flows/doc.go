// Package flows contains pure-function orchestrators for every account
// operation the Engine exposes.
//
// Each Run* function accepts a typed dependency struct and returns a result
// carrying either the produced value or a FailureKind the root package maps
// to its public error taxonomy, audit events and metrics.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the user store, password hasher, token
// issuer, identity verifiers and code delivery. They do NOT own any of these
// resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAccount (to avoid import cycles).
//   - Log. Causes travel back in the result and the Engine decides what to log.
package flows

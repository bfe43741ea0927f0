// Package password implements password hashing and verification with bcrypt.
//
// Hashes use the standard modular crypt format ($2a$<cost>$...), so records
// written by any bcrypt implementation verify here.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (length,
// character classes) is enforced by the validate package before hashing.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other goAccount package.
//   - Log plaintext passwords.
package password

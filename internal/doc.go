// Package internal holds helpers private to goAccount, currently the
// confirmation-code generator.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - flows: pure-function orchestrators behind every Engine operation
//   - httpapi: chi routes that expose the Engine over HTTP
//
// # What this package must NOT do
//
//   - Export types that appear in the public goAccount API.
//   - Be imported by any package outside the goAccount module.
package internal

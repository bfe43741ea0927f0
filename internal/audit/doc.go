// Package audit implements async event dispatching for account operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, zap, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//     It stamps missing timestamps, replaces credential-like metadata values with
//     [Redacted], and counts events lost to a full buffer or a panicking sink.
//   - [Event]: structured audit record with timestamp, type, user, provider, IP, metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; that responsibility belongs to the Engine.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goAccount or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit

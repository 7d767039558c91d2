// Package audit provides the audit event model, sinks, and the asynchronous
// dispatcher used by the engine.
//
// # Architecture boundaries
//
// This package owns event delivery. It does NOT decide what is audit-worthy —
// the engine emits events at its own call sites.
//
// # What this package must NOT do
//
//   - Block engine operations when a sink is slow (buffered dispatch only).
//   - Import eventgate or any sibling package.
package audit

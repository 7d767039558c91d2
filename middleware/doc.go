// Package middleware exposes HTTP middleware adapters for route protection
// built on top of eventgate.Engine session validation.
//
// # Guards
//
//   - [Gate] — prefix-based access gate; unauthenticated requests are sent
//     to the sign-in route.
//   - [RequireRole] — role check layered on top of an already-gated route.
//
// The gate reads the session cookie (or a bearer token as fallback), calls
// Engine.CurrentSession, and injects the session into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// Engine.CurrentSession and the role registry.
//
// # What this package must NOT do
//
//   - Parse or create session tokens directly (delegates to Engine).
//   - Call the event-platform backend.
//   - Make authorization decisions beyond pass/reject/redirect.
package middleware

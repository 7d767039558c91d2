// Package eventgate provides the authentication and session layer for the Eventra
// event-management front-end: a credential exchange client against the platform
// backend, a redis-backed multi-step sign-in wizard (login → signup → OTP), signed
// stateless sessions, and role-based access gating for the protected areas.
//
// All durable account state (users, OTP secrets, events) lives in the external
// backend; eventgate only exchanges credentials with it and materializes a signed
// session once the backend has confirmed OTP verification. Engine methods are safe
// to call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// eventgate is the public surface. It exposes [Engine], [Builder], [Config], and
// value types (Identity, FlowState, SignInResult, MetricsSnapshot). Wizard state
// persistence, rate limiting, and audit dispatch live under internal/ and are
// never exported. Token signing lives in jwt/, cookie handling in session/,
// HTTP gating in middleware/, and the backend REST client in backend/.
//
// # What this package must NOT do
//
//   - Verify passwords or OTP codes locally — only the backend can.
//   - Expose Redis clients or wizard record encodings in its public API.
//   - Import any sub-package that re-imports eventgate (no import cycles).
package eventgate

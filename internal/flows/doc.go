// Package flows defines the sign-in wizard state machine as pure functions
// over a tagged step enum.
//
// The wizard has exactly three steps (login, signup, otp) and a fixed edge
// set. Every transition goes through [Transition], which rejects edges the
// wizard does not allow, so no caller can move a flow into an arbitrary step.
//
// # Architecture boundaries
//
// This package owns step identity and transition legality. It does NOT
// persist flows, call the backend, or create sessions — the Engine does.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import eventgate (to avoid import cycles).
//   - Perform I/O.
package flows

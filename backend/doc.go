// Package backend is the REST client for the external event-platform API:
// credential exchange (register, login, OTP verify, OTP resend), event
// listing and creation, and member listing.
//
// Every operation normalizes failure into a *[Error] carrying a user-facing
// message: a server-supplied message when one exists, the transport error
// text otherwise, and a static per-operation default as the last resort.
// Callers never see a raw transport error.
//
// Base-URL and path joining is centralized in one helper, so the client is
// indifferent to trailing or leading slashes in configuration.
//
// # What this package must NOT do
//
//   - Hold session state or interpret roles.
//   - Import eventgate (no upward imports).
package backend

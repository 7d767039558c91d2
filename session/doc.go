// Package session holds the cookie codec that carries the signed session
// token between requests.
//
// The signed token is the sole persisted session artifact: there is no
// server-side session record and no revocation list. Validity is decided by
// signature and expiry alone, which trades immediate revocation for
// statelessness.
//
// # What this package must NOT do
//
//   - Sign or verify tokens (jwt/ does).
//   - Import eventgate (no upward imports).
package session

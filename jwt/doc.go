// Package jwt issues and verifies the signed session tokens that carry one
// Identity for the lifetime of a session. Verification is signature + expiry
// only; no server round-trip is involved.
package jwt

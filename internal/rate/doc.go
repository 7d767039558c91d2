// Package rate enforces fixed-window attempt budgets for login submissions
// and OTP resend requests using Redis counters.
//
// # What this package must NOT do
//
//   - Reveal whether an account exists (missing counters read as zero).
//   - Import eventgate or any sibling package.
package rate

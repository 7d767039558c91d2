package eventgate

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before Build
	// completed or on a nil Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrFlowNotFound is returned when no sign-in flow exists for the given ID.
	ErrFlowNotFound = errors.New("sign-in flow not found")
	// ErrFlowExpired is returned when a sign-in flow record outlived its TTL.
	ErrFlowExpired = errors.New("sign-in flow expired")
	// ErrFlowBusy is returned when a credential exchange is already in flight
	// for the flow. The caller should wait for the outstanding submit.
	ErrFlowBusy = errors.New("sign-in flow has an exchange in flight")
	// ErrFlowUnavailable is returned when the flow state backend cannot be reached.
	ErrFlowUnavailable = errors.New("sign-in flow backend unavailable")
	// ErrFlowTransition is returned for a step change the wizard does not allow,
	// including resend requests from any step but the OTP step.
	ErrFlowTransition = errors.New("invalid sign-in flow transition")
	// ErrOTPIncomplete is returned when the submitted code is not a full
	// numeric OTP of the configured length.
	ErrOTPIncomplete = errors.New("one-time code incomplete")
	// ErrLoginRateLimited is returned when login submissions for an email or IP
	// exceed the configured attempt budget.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrResendRateLimited is returned when OTP resend requests exceed the
	// configured per-email or per-IP budget.
	ErrResendRateLimited = errors.New("otp resend rate limited")
	// ErrSessionRejected is returned by CreateSession when the identity lacks a
	// backend token or user ID. No session is produced.
	ErrSessionRejected = errors.New("identity not eligible for a session")
	// ErrForbidden is returned when the session's role lacks the capability an
	// operation requires.
	ErrForbidden = errors.New("role lacks required capability")
	// ErrSessionNotFound is returned when no session token is present.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTokenInvalid is returned for a session token that is expired, malformed,
	// or carries a bad signature.
	ErrTokenInvalid = errors.New("invalid session token")
)

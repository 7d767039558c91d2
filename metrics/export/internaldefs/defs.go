package internaldefs

import (
	eventgate "github.com/eventra/eventgate"
)

// CounterDef defines a public type used by eventgate APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   eventgate.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by eventgate APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   eventgate.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the sign-in engine.
var CounterDefs = []CounterDef{
	{ID: eventgate.MetricFlowStarted, Name: "eventgate_flow_started_total", Help: "Opened sign-in flows."},
	{ID: eventgate.MetricFlowSwitched, Name: "eventgate_flow_switched_total", Help: "Wizard step switches."},
	{ID: eventgate.MetricFlowClosed, Name: "eventgate_flow_closed_total", Help: "Closed sign-in flows."},
	{ID: eventgate.MetricFlowExpired, Name: "eventgate_flow_expired_total", Help: "Sign-in flows that lapsed before completion."},
	{ID: eventgate.MetricSignupSuccess, Name: "eventgate_signup_success_total", Help: "Successful registration exchanges."},
	{ID: eventgate.MetricSignupFailure, Name: "eventgate_signup_failure_total", Help: "Failed registration exchanges."},
	{ID: eventgate.MetricLoginSuccess, Name: "eventgate_login_success_total", Help: "Successful login exchanges."},
	{ID: eventgate.MetricLoginFailure, Name: "eventgate_login_failure_total", Help: "Failed login exchanges."},
	{ID: eventgate.MetricLoginRateLimited, Name: "eventgate_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: eventgate.MetricOTPSuccess, Name: "eventgate_otp_success_total", Help: "Successful OTP verifications."},
	{ID: eventgate.MetricOTPFailure, Name: "eventgate_otp_failure_total", Help: "Failed OTP verifications."},
	{ID: eventgate.MetricOTPResent, Name: "eventgate_otp_resent_total", Help: "OTP resend dispatches."},
	{ID: eventgate.MetricOTPResendRateLimited, Name: "eventgate_otp_resend_rate_limited_total", Help: "Rate-limited OTP resend attempts."},
	{ID: eventgate.MetricSessionCreated, Name: "eventgate_session_created_total", Help: "Created sessions."},
	{ID: eventgate.MetricSessionRejected, Name: "eventgate_session_rejected_total", Help: "Identities rejected for missing backend token or user ID."},
	{ID: eventgate.MetricSessionDestroyed, Name: "eventgate_session_destroyed_total", Help: "Destroyed sessions."},
	{ID: eventgate.MetricGateAllowed, Name: "eventgate_gate_allowed_total", Help: "Gate decisions that admitted a request."},
	{ID: eventgate.MetricGateDenied, Name: "eventgate_gate_denied_total", Help: "Gate decisions that denied a request."},
}

// HistogramDefs is an exported constant or variable used by the sign-in engine.
var HistogramDefs = []HistogramDef{
	{ID: eventgate.MetricExchangeLatency, Name: "eventgate_exchange_latency_seconds", Help: "Backend credential exchange latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the sign-in engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

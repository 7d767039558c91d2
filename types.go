package eventgate

import (
	"io"
	"time"

	internalaudit "github.com/eventra/eventgate/internal/audit"
	"github.com/eventra/eventgate/internal/flows"
)

// Role names as issued by the backend. Matching is case-insensitive
// everywhere roles are consumed; these are the canonical spellings.
const (
	RoleAdmin       = "ADMIN"
	RoleParticipant = "PARTICIPANT"
	RoleMember      = "MEMBER"
	// RolePublic is the implicit role of an unauthenticated visitor. The
	// backend never issues it; it only appears in authorization checks.
	RolePublic = "PUBLIC"
)

// Identity is the authenticated user's attributes and backend credential as
// returned by a completed OTP verification.
//
// BackendToken is present if and only if the identity resulted from a
// completed verification; [Engine.CreateSession] enforces that no session is
// constructed without it.
type Identity struct {
	ID           string
	Email        string
	Name         string
	Role         string
	ProfileID    string
	BackendToken string
}

// FlowStep is one of the three mutually exclusive wizard steps.
type FlowStep = flows.Step

const (
	// StepLogin is the initial step of every sign-in flow.
	StepLogin = flows.StepLogin
	// StepSignup collects registration details before OTP dispatch.
	StepSignup = flows.StepSignup
	// StepOTP awaits the one-time code sent to the carried email.
	StepOTP = flows.StepOTP
)

// FlowState is the externally visible snapshot of one sign-in flow.
type FlowState struct {
	FlowID string
	Step   FlowStep
	// Email is carried from the signup step into the OTP step and is empty
	// in every other step.
	Email     string
	ExpiresAt time.Time
	// Notice is a transient advisory message (e.g. after an OTP resend).
	// It does not reflect flow state and is not persisted.
	Notice string
}

// SignInResult is produced when a flow terminates successfully: the backend
// confirmed the credentials and a local session was issued.
type SignInResult struct {
	SessionToken string
	Identity     Identity
	// RedirectPath is the role-based landing route for the new session.
	RedirectPath string
}

// Session is a decoded, validated session: the embedded identity plus token
// metadata. Role and BackendToken are fixed at creation; a changed role
// requires a fresh sign-in.
type Session struct {
	Identity
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Audit event types emitted by the engine.
const (
	auditFlowStart      = "flow_start"
	auditFlowSwitch     = "flow_switch"
	auditFlowClose      = "flow_close"
	auditSignup         = "signup"
	auditLogin          = "login"
	auditOTPVerify      = "otp_verify"
	auditOTPResend      = "otp_resend"
	auditSessionCreate  = "session_create"
	auditSessionDestroy = "session_destroy"
	auditGateDeny       = "gate_deny"
)

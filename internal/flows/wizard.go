package flows

import "errors"

// Step identifies one wizard step. The zero value is [StepLogin], the initial
// step of every flow.
type Step uint8

const (
	StepLogin Step = iota
	StepSignup
	StepOTP
	stepCount
)

var (
	// ErrTransition is returned for an edge the wizard does not define.
	ErrTransition = errors.New("transition not allowed")
	// ErrWrongStep is returned when an action is submitted from a step that
	// does not host it.
	ErrWrongStep = errors.New("action not available in this step")
	// ErrEmailRequired is returned when a transition into the OTP step is
	// attempted without a carried email.
	ErrEmailRequired = errors.New("otp step requires a carried email")
)

// String returns the wire spelling of the step.
func (s Step) String() string {
	switch s {
	case StepLogin:
		return "login"
	case StepSignup:
		return "signup"
	case StepOTP:
		return "otp"
	default:
		return "unknown"
	}
}

// Valid reports whether s names a defined step.
func (s Step) Valid() bool {
	return s < stepCount
}

// ParseStep maps a wire spelling back to a [Step].
func ParseStep(name string) (Step, bool) {
	switch name {
	case "login":
		return StepLogin, true
	case "signup":
		return StepSignup, true
	case "otp":
		return StepOTP, true
	default:
		return stepCount, false
	}
}

// edges holds the wizard's complete transition graph:
//
//	login  → signup   (user chooses signup)
//	login  → otp      (login found an unverified account; email carried forward)
//	signup → login    (user chooses login)
//	signup → otp      (registration call succeeded; email carried forward)
//	otp    → signup   (user chooses "back")
//
// Termination (otp → closed, or closing at any step) is flow deletion,
// not an edge.
var edges = map[Step][]Step{
	StepLogin:  {StepSignup, StepOTP},
	StepSignup: {StepLogin, StepOTP},
	StepOTP:    {StepSignup},
}

// Transition validates the edge from → to. Entering [StepOTP] additionally
// requires a non-empty carried email.
func Transition(from, to Step, email string) error {
	if !from.Valid() || !to.Valid() {
		return ErrTransition
	}
	for _, next := range edges[from] {
		if next != to {
			continue
		}
		if to == StepOTP && email == "" {
			return ErrEmailRequired
		}
		return nil
	}
	return ErrTransition
}

// Require rejects an action submitted from any step other than want.
func Require(have, want Step) error {
	if have != want {
		return ErrWrongStep
	}
	return nil
}

// CanResend reports whether the resend action is available. Resend is
// independent of the transition graph and only exists in the OTP step.
func CanResend(s Step) bool {
	return s == StepOTP
}

// CompleteOTP reports whether code is a full numeric one-time code of the
// given length. Incomplete codes are rejected before any backend dispatch.
func CompleteOTP(code string, digits int) bool {
	if digits <= 0 || len(code) != digits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

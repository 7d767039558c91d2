package eventgate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/eventra/eventgate/internal/flows"
	"github.com/eventra/eventgate/internal/rate"
)

// StartFlow opens a new sign-in flow at the login step. The flow lives in
// redis under a random flow ID until it is completed, closed, or its TTL
// lapses.
//
// StartFlow may return an error when input validation, dependency calls, or backend checks fail.
// StartFlow does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) StartFlow(ctx context.Context) (*FlowState, error) {
	if e == nil || e.flowStore == nil {
		return nil, ErrEngineNotReady
	}

	flowID := uuid.NewString()
	record := &flowRecord{
		Step:      flows.StepLogin,
		ExpiresAt: time.Now().Add(e.config.Flow.TTL).Unix(),
	}
	if err := e.flowStore.Save(ctx, flowID, record, e.config.Flow.TTL); err != nil {
		return nil, err
	}

	e.metricInc(MetricFlowStarted)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditFlowStart,
		FlowID:    flowID,
		Success:   true,
	})

	return e.flowState(flowID, record, ""), nil
}

// FlowStatus returns the current snapshot of a flow.
//
// FlowStatus may return an error when input validation, dependency calls, or backend checks fail.
// FlowStatus does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) FlowStatus(ctx context.Context, flowID string) (*FlowState, error) {
	if e == nil || e.flowStore == nil {
		return nil, ErrEngineNotReady
	}
	record, err := e.loadFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return e.flowState(flowID, record, ""), nil
}

// SwitchToSignup moves a flow from the login step to the signup step.
//
// SwitchToSignup may return an error when input validation, dependency calls, or backend checks fail.
// SwitchToSignup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SwitchToSignup(ctx context.Context, flowID string) (*FlowState, error) {
	return e.switchStep(ctx, flowID, flows.StepSignup)
}

// SwitchToLogin moves a flow from the signup step back to the login step.
// The carried email, if any, is discarded.
//
// SwitchToLogin may return an error when input validation, dependency calls, or backend checks fail.
// SwitchToLogin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SwitchToLogin(ctx context.Context, flowID string) (*FlowState, error) {
	return e.switchStep(ctx, flowID, flows.StepLogin)
}

// BackToSignup abandons a pending OTP step and returns to signup.
//
// BackToSignup may return an error when input validation, dependency calls, or backend checks fail.
// BackToSignup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) BackToSignup(ctx context.Context, flowID string) (*FlowState, error) {
	return e.switchStep(ctx, flowID, flows.StepSignup)
}

func (e *Engine) switchStep(ctx context.Context, flowID string, to flows.Step) (*FlowState, error) {
	if e == nil || e.flowStore == nil {
		return nil, ErrEngineNotReady
	}

	record, err := e.loadFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}

	email := record.Email
	if to != flows.StepOTP {
		// Email is only meaningful on the OTP step.
		email = ""
	}
	if err := flows.Transition(record.Step, to, email); err != nil {
		return nil, ErrFlowTransition
	}

	record.Step = to
	record.Email = email
	if err := e.saveFlow(ctx, flowID, record); err != nil {
		return nil, err
	}

	e.metricInc(MetricFlowSwitched)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditFlowSwitch,
		FlowID:    flowID,
		Success:   true,
		Metadata:  map[string]string{"step": to.String()},
	})

	return e.flowState(flowID, record, ""), nil
}

// CloseFlow discards a flow. Closing an already absent flow is not an error.
//
// CloseFlow may return an error when input validation, dependency calls, or backend checks fail.
// CloseFlow does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CloseFlow(ctx context.Context, flowID string) error {
	if e == nil || e.flowStore == nil {
		return ErrEngineNotReady
	}

	existed, err := e.flowStore.Delete(ctx, flowID)
	if err != nil {
		return err
	}
	if existed {
		e.metricInc(MetricFlowClosed)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditFlowClose,
			FlowID:    flowID,
			Success:   true,
		})
	}
	return nil
}

// SubmitSignup exchanges registration details with the backend. On success
// the flow advances to the OTP step carrying the submitted email; the
// returned state's Notice holds the backend's acknowledgment.
//
// SubmitSignup may return an error when input validation, dependency calls, or backend checks fail.
// SubmitSignup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SubmitSignup(ctx context.Context, flowID, name, email, password, registrationID string) (*FlowState, error) {
	if e == nil || e.flowStore == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}

	record, err := e.loadFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if err := flows.Require(record.Step, flows.StepSignup); err != nil {
		return nil, ErrFlowTransition
	}

	release, err := e.acquireGuard(ctx, flowID)
	if err != nil {
		return nil, err
	}
	defer release()

	started := time.Now()
	payload, err := e.backend.Register(ctx, name, email, password, registrationID)
	e.metricObserve(MetricExchangeLatency, time.Since(started))
	if err != nil {
		e.metricInc(MetricSignupFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditSignup,
			FlowID:    flowID,
			Email:     email,
			Success:   false,
			Error:     err.Error(),
		})
		return nil, err
	}

	if err := flows.Transition(record.Step, flows.StepOTP, email); err != nil {
		return nil, ErrFlowTransition
	}
	record.Step = flows.StepOTP
	record.Email = email
	if err := e.saveFlow(ctx, flowID, record); err != nil {
		return nil, err
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditSignup,
		FlowID:    flowID,
		Email:     email,
		Success:   true,
	})

	notice := payload.Message
	if notice == "" {
		notice = "OTP sent to your email"
	}
	return e.flowState(flowID, record, notice), nil
}

// SubmitLogin exchanges credentials with the backend. Verified accounts get
// a session immediately and the flow terminates with a SignInResult.
// Accounts still awaiting verification advance to the OTP step instead; the
// flow state is returned with the backend's notice and no result.
//
// SubmitLogin may return an error when input validation, dependency calls, or backend checks fail.
// SubmitLogin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SubmitLogin(ctx context.Context, flowID, email, password string) (*FlowState, *SignInResult, error) {
	if e == nil || e.flowStore == nil || e.backend == nil {
		return nil, nil, ErrEngineNotReady
	}

	record, err := e.loadFlow(ctx, flowID)
	if err != nil {
		return nil, nil, err
	}
	if err := flows.Require(record.Step, flows.StepLogin); err != nil {
		return nil, nil, ErrFlowTransition
	}

	ip := clientIPFromContext(ctx)
	if err := e.rateLimiter.CheckLogin(ctx, email, ip); err != nil {
		return nil, nil, e.loginRateError(ctx, flowID, email, err)
	}

	release, err := e.acquireGuard(ctx, flowID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	started := time.Now()
	payload, err := e.backend.Login(ctx, email, password)
	e.metricObserve(MetricExchangeLatency, time.Since(started))
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditLogin,
			FlowID:    flowID,
			Email:     email,
			Success:   false,
			Error:     err.Error(),
		})
		if incErr := e.rateLimiter.IncrementLogin(ctx, email, ip); errors.Is(incErr, rate.ErrRateLimited) {
			return nil, nil, e.loginRateError(ctx, flowID, email, incErr)
		}
		return nil, nil, err
	}

	if payload.Token != "" && payload.User != nil {
		identity := Identity{
			ID:           payload.User.ID,
			Email:        payload.User.Email,
			Name:         payload.User.Name,
			Role:         payload.User.Role,
			ProfileID:    payload.ProfileID,
			BackendToken: payload.Token,
		}
		result, err := e.completeFlow(ctx, flowID, auditLogin, identity)
		if err != nil {
			return nil, nil, err
		}
		_ = e.rateLimiter.ResetLogin(ctx, email, ip)
		e.metricInc(MetricLoginSuccess)
		return nil, result, nil
	}

	// No token: the account exists but still awaits OTP verification.
	// Carry the email into the OTP step.
	if err := flows.Transition(record.Step, flows.StepOTP, email); err != nil {
		return nil, nil, ErrFlowTransition
	}
	record.Step = flows.StepOTP
	record.Email = email
	if err := e.saveFlow(ctx, flowID, record); err != nil {
		return nil, nil, err
	}

	e.emitAudit(ctx, AuditEvent{
		EventType: auditLogin,
		FlowID:    flowID,
		Email:     email,
		Success:   true,
		Metadata:  map[string]string{"pending": "otp"},
	})

	notice := payload.Message
	if notice == "" {
		notice = "Verify your email to continue"
	}
	return e.flowState(flowID, record, notice), nil, nil
}

// SubmitOTP exchanges the one-time code with the backend. On success the
// flow terminates: a session is created and the SignInResult carries the
// session token and role-based redirect. An invalid or incomplete code
// leaves the flow on the OTP step.
//
// SubmitOTP may return an error when input validation, dependency calls, or backend checks fail.
// SubmitOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SubmitOTP(ctx context.Context, flowID, code string) (*SignInResult, error) {
	if e == nil || e.flowStore == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}

	record, err := e.loadFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if err := flows.Require(record.Step, flows.StepOTP); err != nil {
		return nil, ErrFlowTransition
	}
	if !flows.CompleteOTP(code, e.config.Flow.OTPDigits) {
		return nil, ErrOTPIncomplete
	}

	release, err := e.acquireGuard(ctx, flowID)
	if err != nil {
		return nil, err
	}
	defer release()

	started := time.Now()
	payload, err := e.backend.VerifyOTP(ctx, record.Email, code)
	e.metricObserve(MetricExchangeLatency, time.Since(started))
	if err != nil {
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditOTPVerify,
			FlowID:    flowID,
			Email:     record.Email,
			Success:   false,
			Error:     err.Error(),
		})
		return nil, err
	}

	identity := Identity{
		ID:           payload.User.ID,
		Email:        payload.User.Email,
		Name:         payload.User.Name,
		Role:         payload.User.Role,
		ProfileID:    payload.ProfileID,
		BackendToken: payload.Token,
	}

	result, err := e.completeFlow(ctx, flowID, auditOTPVerify, identity)
	if err != nil {
		// Session creation failed; the flow stays on the OTP step so the
		// user can retry.
		return nil, err
	}

	e.metricInc(MetricOTPSuccess)
	return result, nil
}

// ResendOTP asks the backend to send a fresh code for the flow's carried
// email. Only valid on the OTP step, and budgeted per email and IP.
//
// ResendOTP may return an error when input validation, dependency calls, or backend checks fail.
// ResendOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResendOTP(ctx context.Context, flowID string) (*FlowState, error) {
	if e == nil || e.flowStore == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}

	record, err := e.loadFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if !flows.CanResend(record.Step) {
		return nil, ErrFlowTransition
	}

	ip := clientIPFromContext(ctx)
	if err := e.rateLimiter.CheckResend(ctx, record.Email, ip); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricOTPResendRateLimited)
			return nil, ErrResendRateLimited
		}
		return nil, ErrFlowUnavailable
	}

	if err := e.backend.ResendOTP(ctx, record.Email); err != nil {
		e.emitAudit(ctx, AuditEvent{
			EventType: auditOTPResend,
			FlowID:    flowID,
			Email:     record.Email,
			Success:   false,
			Error:     err.Error(),
		})
		return nil, err
	}

	e.metricInc(MetricOTPResent)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditOTPResend,
		FlowID:    flowID,
		Email:     record.Email,
		Success:   true,
	})

	return e.flowState(flowID, record, "OTP resent to your email"), nil
}

// completeFlow terminates a flow with a fresh session. The flow record is
// deleted only after the session was issued.
func (e *Engine) completeFlow(ctx context.Context, flowID, eventType string, identity Identity) (*SignInResult, error) {
	token, _, err := e.CreateSession(ctx, identity)
	if err != nil {
		return nil, err
	}

	if _, err := e.flowStore.Delete(ctx, flowID); err != nil {
		// The session is already issued; a stale flow record will lapse
		// with its TTL.
		e.emitAudit(ctx, AuditEvent{
			EventType: auditFlowClose,
			FlowID:    flowID,
			Success:   false,
			Error:     err.Error(),
		})
	} else {
		e.metricInc(MetricFlowClosed)
	}

	e.emitAudit(ctx, AuditEvent{
		EventType: eventType,
		FlowID:    flowID,
		UserID:    identity.ID,
		Email:     identity.Email,
		Success:   true,
		Metadata:  map[string]string{"role": identity.Role},
	})

	return &SignInResult{
		SessionToken: token,
		Identity:     identity,
		RedirectPath: e.ResolveRedirect(identity.Role),
	}, nil
}

func (e *Engine) loadFlow(ctx context.Context, flowID string) (*flowRecord, error) {
	if flowID == "" {
		return nil, ErrFlowNotFound
	}
	record, err := e.flowStore.Get(ctx, flowID)
	if err != nil {
		if errors.Is(err, ErrFlowExpired) {
			e.metricInc(MetricFlowExpired)
		}
		return nil, err
	}
	return record, nil
}

// saveFlow rewrites the record under the remaining TTL so step changes never
// extend a flow's lifetime.
func (e *Engine) saveFlow(ctx context.Context, flowID string, record *flowRecord) error {
	ttl := time.Until(time.Unix(record.ExpiresAt, 0))
	if ttl <= 0 {
		return ErrFlowExpired
	}
	return e.flowStore.Save(ctx, flowID, record, ttl)
}

func (e *Engine) acquireGuard(ctx context.Context, flowID string) (func(), error) {
	ok, err := e.flowStore.AcquireGuard(ctx, flowID, e.config.Flow.SubmitGuardTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrFlowBusy
	}
	return func() { e.flowStore.ReleaseGuard(ctx, flowID) }, nil
}

func (e *Engine) loginRateError(ctx context.Context, flowID, email string, err error) error {
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditLogin,
			FlowID:    flowID,
			Email:     email,
			Success:   false,
			Error:     ErrLoginRateLimited.Error(),
		})
		return ErrLoginRateLimited
	}
	return ErrFlowUnavailable
}

func (e *Engine) flowState(flowID string, record *flowRecord, notice string) *FlowState {
	return &FlowState{
		FlowID:    flowID,
		Step:      record.Step,
		Email:     record.Email,
		ExpiresAt: time.Unix(record.ExpiresAt, 0),
		Notice:    notice,
	}
}

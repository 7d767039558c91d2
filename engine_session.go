package eventgate

import (
	"context"
	"time"
)

// CreateSession turns a verified identity into a signed session token.
// Identities without a backend token or user ID are rejected with
// [ErrSessionRejected]: the backend only issues a token for fully verified
// accounts, so anything weaker must not become a session.
//
// CreateSession may return an error when input validation, dependency calls, or backend checks fail.
// CreateSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CreateSession(ctx context.Context, identity Identity) (string, *Session, error) {
	if e == nil || e.jwtManager == nil {
		return "", nil, ErrEngineNotReady
	}

	if identity.BackendToken == "" || identity.ID == "" {
		e.metricInc(MetricSessionRejected)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditSessionCreate,
			UserID:    identity.ID,
			Email:     identity.Email,
			Success:   false,
			Error:     ErrSessionRejected.Error(),
		})
		return "", nil, ErrSessionRejected
	}

	token, err := e.jwtManager.Issue(
		identity.ID,
		identity.Email,
		identity.Name,
		identity.Role,
		identity.ProfileID,
		identity.BackendToken,
	)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	session := &Session{
		Identity:  identity,
		IssuedAt:  now,
		ExpiresAt: now.Add(e.config.JWT.SessionTTL),
	}

	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditSessionCreate,
		UserID:    identity.ID,
		Email:     identity.Email,
		Success:   true,
		Metadata:  map[string]string{"role": identity.Role},
	})

	return token, session, nil
}

// CurrentSession validates a session token and reconstructs the session it
// carries. An empty token maps to [ErrSessionNotFound]; any parse or
// signature failure maps to [ErrTokenInvalid].
//
// CurrentSession may return an error when input validation, dependency calls, or backend checks fail.
// CurrentSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CurrentSession(ctx context.Context, token string) (*Session, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if token == "" {
		return nil, ErrSessionNotFound
	}

	claims, err := e.jwtManager.Parse(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	session := &Session{
		Identity: Identity{
			ID:           claims.UID,
			Email:        claims.Email,
			Name:         claims.Name,
			Role:         claims.Role,
			ProfileID:    claims.ProfileID,
			BackendToken: claims.BackendToken,
		},
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}

	return session, nil
}

// DestroySession ends the session the token represents. Destruction is
// idempotent: an absent or invalid token is not an error, the caller clears
// the cookie either way.
//
// DestroySession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) DestroySession(ctx context.Context, token string) {
	if e == nil {
		return
	}

	session, err := e.CurrentSession(ctx, token)
	if err != nil {
		return
	}

	e.metricInc(MetricSessionDestroyed)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditSessionDestroy,
		UserID:    session.ID,
		Email:     session.Email,
		Success:   true,
	})
}

package eventgate

import (
	"context"

	"github.com/eventra/eventgate/backend"
)

// Events returns the public event list. No session is required.
//
// Events may return an error when input validation, dependency calls, or backend checks fail.
// Events does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Events(ctx context.Context) (*backend.EventList, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}
	return e.backend.ListEvents(ctx)
}

// CreateEvent publishes a new event on behalf of the session. The session's
// role must hold the events.manage capability; the backend authorizes the
// call again with the session's carried token.
//
// CreateEvent may return an error when input validation, dependency calls, or backend checks fail.
// CreateEvent does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CreateEvent(ctx context.Context, session *Session, ev backend.Event, uploads []backend.EventUpload) error {
	if e == nil || e.backend == nil {
		return ErrEngineNotReady
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if !e.Can(session.Role, CapEventsManage) {
		return ErrForbidden
	}
	return e.backend.CreateEvent(ctx, session.BackendToken, ev, uploads)
}

// Members returns the member directory for sessions holding the
// members.view capability.
//
// Members may return an error when input validation, dependency calls, or backend checks fail.
// Members does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Members(ctx context.Context, session *Session) ([]backend.Member, error) {
	if e == nil || e.backend == nil {
		return nil, ErrEngineNotReady
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if !e.Can(session.Role, CapMembersView) {
		return nil, ErrForbidden
	}
	return e.backend.ListMembers(ctx, session.BackendToken)
}

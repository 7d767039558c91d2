package eventgate

import "strings"

// ResolveRedirect maps a role to its landing route. Unknown, empty, and
// unauthenticated roles all land on the default path. Matching is
// case-insensitive: the backend has emitted both "ADMIN" and "admin".
//
// ResolveRedirect does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResolveRedirect(role string) string {
	if e == nil {
		return defaultConfig().Redirect.DefaultPath
	}
	return resolveRedirect(e.config.Redirect, role)
}

func resolveRedirect(cfg RedirectConfig, role string) string {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case RoleAdmin:
		return cfg.AdminPath
	case RoleParticipant:
		return cfg.ParticipantPath
	case RoleMember:
		return cfg.MemberPath
	default:
		return cfg.DefaultPath
	}
}

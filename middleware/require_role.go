package middleware

import (
	"net/http"
	"strings"

	eventgate "github.com/eventra/eventgate"
)

// RequireRole returns middleware that rejects requests whose gated session
// does not carry one of the given roles. It layers on top of [Gate]: a
// request without an injected session is rejected outright. Role matching
// is case-insensitive.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[strings.ToUpper(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if _, ok := allowed[strings.ToUpper(strings.TrimSpace(sess.Role))]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCapability returns middleware that rejects gated sessions whose
// role does not hold the capability in the engine's registry.
func RequireCapability(engine *eventgate.Engine, capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok || engine == nil || !engine.Can(sess.Role, capability) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

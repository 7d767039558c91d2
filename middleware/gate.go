package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	eventgate "github.com/eventra/eventgate"
	"github.com/eventra/eventgate/session"
)

type sessionContextKey struct{}

// SessionFromContext returns the session the gate injected for the request.
func SessionFromContext(ctx context.Context) (*eventgate.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*eventgate.Session)
	return s, ok
}

// GateConfig controls which routes the gate protects and where denied
// requests land.
type GateConfig struct {
	// Prefixes are the protected route prefixes. A request is gated when
	// its path equals a prefix or sits below it.
	Prefixes []string
	// SignInPath receives redirected browser requests. Defaults to "/".
	SignInPath string
}

// DefaultGateConfig protects the admin and profile subtrees.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Prefixes:   []string{"/admin", "/profile"},
		SignInPath: "/",
	}
}

// Gate returns middleware that enforces a binary access decision on the
// configured prefixes: with a valid session the request proceeds and the
// session rides the context; without one the browser is redirected to the
// sign-in route with the original path in the callbackUrl query parameter.
// Routes outside the prefixes pass through untouched.
func Gate(engine *eventgate.Engine, cfg GateConfig) func(http.Handler) http.Handler {
	signIn := cfg.SignInPath
	if signIn == "" {
		signIn = "/"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gated(cfg.Prefixes, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if engine == nil {
				deny(w, r, signIn)
				return
			}

			token := requestToken(r, engine.CookieSettings())
			sess, err := engine.CurrentSession(r.Context(), token)
			if err != nil {
				engine.RecordGateDecision(r.Context(), false, r.URL.Path)
				deny(w, r, signIn)
				return
			}
			engine.RecordGateDecision(r.Context(), true, r.URL.Path)

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Attach resolves the session for any route without enforcing it. Handlers
// that render differently for signed-in users use this on public routes.
func Attach(engine *eventgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine != nil {
				token := requestToken(r, engine.CookieSettings())
				if sess, err := engine.CurrentSession(r.Context(), token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), sessionContextKey{}, sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func gated(prefixes []string, path string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func deny(w http.ResponseWriter, r *http.Request, signIn string) {
	target := signIn + "?callbackUrl=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusFound)
}

func requestToken(r *http.Request, cookieCfg eventgate.CookieConfig) string {
	if token := session.Read(r, session.CookieConfig{Name: cookieCfg.Name}); token != "" {
		return token
	}
	token, _ := bearerToken(r.Header.Get("Authorization"))
	return token
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}

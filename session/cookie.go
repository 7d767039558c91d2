package session

import (
	"net/http"
	"time"
)

// DefaultCookieName is the session cookie written when CookieConfig.Name is
// empty.
const DefaultCookieName = "eventgate_session"

// CookieConfig controls how the session token cookie is written.
type CookieConfig struct {
	Name   string
	Path   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return DefaultCookieName
	}
	return c.Name
}

func (c CookieConfig) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// Write sets the session token cookie. The cookie is always HttpOnly and
// SameSite=Lax; Secure follows the config.
func Write(w http.ResponseWriter, cfg CookieConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.name(),
		Value:    token,
		Path:     cfg.path(),
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.MaxAge / time.Second),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the raw session token from the request cookie, or "" when
// absent.
func Read(r *http.Request, cfg CookieConfig) string {
	cookie, err := r.Cookie(cfg.name())
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Clear expires the session token cookie. Clearing an absent cookie is a
// no-op, which keeps session destruction idempotent.
func Clear(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.name(),
		Value:    "",
		Path:     cfg.path(),
		Domain:   cfg.Domain,
		MaxAge:   -1,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

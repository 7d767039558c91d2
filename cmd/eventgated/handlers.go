package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	eventgate "github.com/eventra/eventgate"
	"github.com/eventra/eventgate/backend"
	"github.com/eventra/eventgate/metrics/export/prometheus"
	gatemw "github.com/eventra/eventgate/middleware"
	"github.com/eventra/eventgate/session"
)

type server struct {
	engine *eventgate.Engine
	logger *slog.Logger
}

func newRouter(engine *eventgate.Engine, logger *slog.Logger) *chi.Mux {
	s := &server{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(clientIP)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", prometheus.NewPrometheusExporter(engine).Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/flow", s.startFlow)
			r.Route("/flow/{flowID}", func(r chi.Router) {
				r.Get("/", s.flowStatus)
				r.Delete("/", s.closeFlow)
				r.Post("/switch", s.switchFlow)
				r.Post("/login", s.submitLogin)
				r.Post("/signup", s.submitSignup)
				r.Post("/otp", s.submitOTP)
				r.Post("/resend", s.resendOTP)
			})
			r.Post("/signout", s.signOut)
		})

		r.Get("/session", s.currentSession)
		r.Get("/nav", s.nav)

		r.Get("/events", s.listEvents)
		r.Get("/members", s.listMembers)

		r.Group(func(r chi.Router) {
			r.Use(gatemw.Attach(engine))
			r.Post("/events", s.createEvent)
		})
	})

	// Gated page subtrees. The admin subtree layers a role check on top of
	// the binary gate.
	gate := gatemw.Gate(engine, gatemw.DefaultGateConfig())
	r.Group(func(r chi.Router) {
		r.Use(gate)
		r.With(gatemw.RequireRole(eventgate.RoleAdmin)).Get("/admin", s.page("admin"))
		r.With(gatemw.RequireRole(eventgate.RoleAdmin)).Get("/admin/*", s.page("admin"))
		r.Get("/profile", s.page("profile"))
		r.Get("/profile/*", s.page("profile"))
	})

	return r
}

// clientIP copies the resolved remote address into the engine's context slot
// so rate limiting and audit see it.
func clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := eventgate.WithClientIP(r.Context(), r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) startFlow(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.StartFlow(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, flowBody(state))
}

func (s *server) flowStatus(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.FlowStatus(r.Context(), chi.URLParam(r, "flowID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, flowBody(state))
}

func (s *server) closeFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.CloseFlow(r.Context(), chi.URLParam(r, "flowID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"closed": true})
}

func (s *server) switchFlow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Step string `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, "malformed request body")
		return
	}

	flowID := chi.URLParam(r, "flowID")
	var (
		state *eventgate.FlowState
		err   error
	)
	switch body.Step {
	case "signup":
		state, err = s.engine.SwitchToSignup(r.Context(), flowID)
	case "login":
		state, err = s.engine.SwitchToLogin(r.Context(), flowID)
	default:
		writeFailure(w, http.StatusUnprocessableEntity, "unknown step")
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, flowBody(state))
}

func (s *server) submitLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, "malformed request body")
		return
	}

	state, result, err := s.engine.SubmitLogin(r.Context(), chi.URLParam(r, "flowID"), body.Email, body.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if result != nil {
		s.writeSignedIn(w, result)
		return
	}
	writeData(w, http.StatusOK, flowBody(state))
}

func (s *server) submitSignup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		Password       string `json:"password"`
		RegistrationID string `json:"registrationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, "malformed request body")
		return
	}

	state, err := s.engine.SubmitSignup(r.Context(), chi.URLParam(r, "flowID"),
		body.Name, body.Email, body.Password, body.RegistrationID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, flowBody(state))
}

func (s *server) submitOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OTP string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, "malformed request body")
		return
	}

	result, err := s.engine.SubmitOTP(r.Context(), chi.URLParam(r, "flowID"), body.OTP)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSignedIn(w, result)
}

func (s *server) resendOTP(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.ResendOTP(r.Context(), chi.URLParam(r, "flowID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, flowBody(state))
}

func (s *server) signOut(w http.ResponseWriter, r *http.Request) {
	cookieCfg := s.sessionCookieConfig()
	s.engine.DestroySession(r.Context(), session.Read(r, cookieCfg))
	session.Clear(w, cookieCfg)
	writeData(w, http.StatusOK, map[string]bool{"signedOut": true})
}

func (s *server) currentSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.CurrentSession(r.Context(), session.Read(r, s.sessionCookieConfig()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sessionBody(sess))
}

func (s *server) nav(w http.ResponseWriter, r *http.Request) {
	role := ""
	if sess, err := s.engine.CurrentSession(r.Context(), session.Read(r, s.sessionCookieConfig())); err == nil {
		role = sess.Role
	}
	writeData(w, http.StatusOK, map[string]any{
		"items":        s.engine.NavForRole(role),
		"capabilities": s.engine.GrantedCapabilities(role),
	})
}

func (s *server) listEvents(w http.ResponseWriter, r *http.Request) {
	list, err := s.engine.Events(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (s *server) listMembers(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.CurrentSession(r.Context(), session.Read(r, s.sessionCookieConfig()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	members, err := s.engine.Members(r.Context(), sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, members)
}

func (s *server) createEvent(w http.ResponseWriter, r *http.Request) {
	sess, ok := gatemw.SessionFromContext(r.Context())
	if !ok {
		s.writeError(w, r, eventgate.ErrSessionNotFound)
		return
	}

	var ev backend.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeFailure(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := s.engine.CreateEvent(r.Context(), sess, ev, nil); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]bool{"created": true})
}

func (s *server) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := gatemw.SessionFromContext(r.Context())
		writeData(w, http.StatusOK, map[string]any{
			"page":    name,
			"session": sessionBody(sess),
		})
	}
}

func (s *server) sessionCookieConfig() session.CookieConfig {
	cookie := s.engine.CookieSettings()
	return session.CookieConfig{
		Name:   cookie.Name,
		Path:   cookie.Path,
		Domain: cookie.Domain,
		Secure: cookie.Secure,
		MaxAge: s.engine.SessionTTL(),
	}
}

// writeSignedIn sets the session cookie and returns the redirect target.
func (s *server) writeSignedIn(w http.ResponseWriter, result *eventgate.SignInResult) {
	session.Write(w, s.sessionCookieConfig(), result.SessionToken)
	writeData(w, http.StatusOK, map[string]any{
		"redirect": result.RedirectPath,
		"user": map[string]string{
			"id":    result.Identity.ID,
			"name":  result.Identity.Name,
			"email": result.Identity.Email,
			"role":  result.Identity.Role,
		},
	})
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var be *backend.Error
	if errors.As(err, &be) {
		status := http.StatusBadGateway
		if be.StatusCode >= 400 && be.StatusCode < 500 {
			status = be.StatusCode
		}
		writeFailure(w, status, be.Message)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, eventgate.ErrFlowNotFound):
		status = http.StatusNotFound
	case errors.Is(err, eventgate.ErrFlowExpired):
		status = http.StatusGone
	case errors.Is(err, eventgate.ErrFlowBusy):
		status = http.StatusConflict
	case errors.Is(err, eventgate.ErrFlowTransition),
		errors.Is(err, eventgate.ErrOTPIncomplete),
		errors.Is(err, eventgate.ErrSessionRejected):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, eventgate.ErrLoginRateLimited),
		errors.Is(err, eventgate.ErrResendRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, eventgate.ErrSessionNotFound),
		errors.Is(err, eventgate.ErrTokenInvalid):
		status = http.StatusUnauthorized
	case errors.Is(err, eventgate.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, eventgate.ErrFlowUnavailable):
		status = http.StatusServiceUnavailable
	default:
		s.logger.Error("unhandled request error", "path", r.URL.Path, "error", err)
	}
	writeFailure(w, status, err.Error())
}

func flowBody(state *eventgate.FlowState) map[string]any {
	body := map[string]any{
		"flowId":    state.FlowID,
		"step":      state.Step.String(),
		"expiresAt": state.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if state.Email != "" {
		body["email"] = state.Email
	}
	if state.Notice != "" {
		body["notice"] = state.Notice
	}
	return body
}

func sessionBody(sess *eventgate.Session) map[string]any {
	if sess == nil {
		return nil
	}
	return map[string]any{
		"user": map[string]string{
			"id":    sess.ID,
			"name":  sess.Name,
			"email": sess.Email,
			"role":  sess.Role,
		},
		"profileId": sess.ProfileID,
		"expiresAt": sess.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})
}

package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventgate "github.com/eventra/eventgate"
)

// fakeBackend mimics the event-platform auth API closely enough for the
// handler flow tests.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "OTP sent"})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		switch body["email"] {
		case "verified@example.com":
			json.NewEncoder(w).Encode(map[string]any{
				"token":     "bt-verified",
				"profileId": "p-1",
				"user": map[string]string{
					"_id": "u-1", "name": "Vera", "email": body["email"], "role": "ADMIN",
				},
			})
		case "pending@example.com":
			json.NewEncoder(w).Encode(map[string]string{"message": "Verify your email"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
		}
	})
	mux.HandleFunc("POST /auth/verify-email", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["otp"] != "123456" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid OTP"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token":     "bt-new",
			"profileId": "p-2",
			"user": map[string]string{
				"_id": "u-2", "name": "Newt", "email": body["email"], "role": "MEMBER",
			},
		})
	})
	mux.HandleFunc("POST /auth/register/resend", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "OTP resent"})
	})
	mux.HandleFunc("GET /event", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"count":   1,
			"events":  []map[string]any{{"_id": "e-1", "title": "GopherCon"}},
		})
	})
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]map[string]string{{"_id": "m-1", "name": "Ada", "role": "MEMBER"}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	srv := fakeBackend(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	cfg := eventgate.DefaultConfig()
	cfg.JWT.PrivateKey = priv
	cfg.JWT.PublicKey = pub
	cfg.Backend.BaseURL = srv.URL
	cfg.Security.MaxLoginAttempts = 3

	engine, err := eventgate.New().WithConfig(cfg).WithRedis(client).Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	return newRouter(engine, slog.Default())
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec, env
}

func startFlow(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec, env := doJSON(t, handler, http.MethodPost, "/api/auth/flow", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var data struct {
		FlowID string `json:"flowId"`
		Step   string `json:"step"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "login", data.Step)
	return data.FlowID
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "eventgate_session" && c.Value != "" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestSignupThroughOTP(t *testing.T) {
	handler := newTestServer(t)
	flowID := startFlow(t, handler)

	// login -> signup
	rec, env := doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/switch", map[string]string{"step": "signup"})
	require.Equal(t, http.StatusOK, rec.Code)

	// signup submit carries the email into the otp step
	rec, env = doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/signup", map[string]string{
		"name": "Newt", "email": "a@b.com", "password": "pw", "registrationId": "r-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		Step   string `json:"step"`
		Email  string `json:"email"`
		Notice string `json:"notice"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, "otp", state.Step)
	assert.Equal(t, "a@b.com", state.Email)
	assert.Equal(t, "OTP sent", state.Notice)

	// full numeric code completes the flow with a session and redirect
	rec, env = doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/otp", map[string]string{"otp": "123456"})
	require.Equal(t, http.StatusOK, rec.Code)
	var signedIn struct {
		Redirect string `json:"redirect"`
		User     struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &signedIn))
	assert.Equal(t, "/member", signedIn.Redirect)
	assert.Equal(t, "MEMBER", signedIn.User.Role)
	cookie := sessionCookie(t, rec)

	// the flow is gone once completed
	rec, _ = doJSON(t, handler, http.MethodGet, "/api/auth/flow/"+flowID+"/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the cookie resolves to a session
	rec, env = doJSON(t, handler, http.MethodGet, "/api/session", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "u-2")
}

func TestIncompleteOTPRejectedLocally(t *testing.T) {
	handler := newTestServer(t)
	flowID := startFlow(t, handler)

	doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/switch", map[string]string{"step": "signup"})
	doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/signup", map[string]string{
		"name": "Newt", "email": "a@b.com", "password": "pw",
	})

	rec, env := doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/otp", map[string]string{"otp": "123"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, env.Success)
}

func TestVerifiedLoginSignsInDirectly(t *testing.T) {
	handler := newTestServer(t)
	flowID := startFlow(t, handler)

	rec, env := doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/login", map[string]string{
		"email": "verified@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var signedIn struct {
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &signedIn))
	assert.Equal(t, "/admin", signedIn.Redirect)
	sessionCookie(t, rec)
}

func TestPendingLoginMovesToOTP(t *testing.T) {
	handler := newTestServer(t)
	flowID := startFlow(t, handler)

	rec, env := doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/login", map[string]string{
		"email": "pending@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		Step  string `json:"step"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, "otp", state.Step)
	assert.Equal(t, "pending@example.com", state.Email)
}

func TestFailedLoginsRateLimited(t *testing.T) {
	handler := newTestServer(t)
	flowID := startFlow(t, handler)

	body := map[string]string{"email": "wrong@example.com", "password": "bad"}
	for i := 0; i < 3; i++ {
		rec, _ := doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/login", body)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i)
	}

	rec, env := doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/login", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, env.Success)
}

func TestResendOnlyFromOTPStep(t *testing.T) {
	handler := newTestServer(t)
	flowID := startFlow(t, handler)

	rec, _ := doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/resend", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/switch", map[string]string{"step": "signup"})
	doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/signup", map[string]string{
		"name": "Newt", "email": "a@b.com", "password": "pw",
	})

	rec, env := doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/resend", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "resent")
}

func TestSignOutClearsCookie(t *testing.T) {
	handler := newTestServer(t)
	flowID := startFlow(t, handler)

	rec, _ := doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/login", map[string]string{
		"email": "verified@example.com", "password": "pw",
	})
	cookie := sessionCookie(t, rec)

	rec, _ = doJSON(t, handler, http.MethodPost, "/api/auth/signout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "eventgate_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "expected an expiring cookie")
}

func TestGatedPages(t *testing.T) {
	handler := newTestServer(t)
	flowID := startFlow(t, handler)

	rec, _ := doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/login", map[string]string{
		"email": "verified@example.com", "password": "pw",
	})
	admin := sessionCookie(t, rec)

	// no session: redirect to sign-in
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusFound, rr.Code)

	// admin session passes both the gate and the role check
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(admin)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	// member session passes the gate on /profile but not the admin role check
	memberFlow := startFlow(t, handler)
	doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+memberFlow+"/switch", map[string]string{"step": "signup"})
	doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+memberFlow+"/signup", map[string]string{
		"name": "Newt", "email": "m@b.com", "password": "pw",
	})
	rec, _ = doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+memberFlow+"/otp", map[string]string{"otp": "123456"})
	member := sessionCookie(t, rec)

	req = httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(member)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(member)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestEventsAndMembersEndpoints(t *testing.T) {
	handler := newTestServer(t)
	flowID := startFlow(t, handler)

	rec, env := doJSON(t, handler, http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "GopherCon")

	// members require a session
	rec, _ = doJSON(t, handler, http.MethodGet, "/api/members", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/login", map[string]string{
		"email": "verified@example.com", "password": "pw",
	})
	cookie := sessionCookie(t, rec)

	rec, env = doJSON(t, handler, http.MethodGet, "/api/members", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "Ada")
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestServer(t)
	startFlow(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eventgate_flow_started_total 1")
}

func TestNavReflectsRole(t *testing.T) {
	handler := newTestServer(t)

	rec, env := doJSON(t, handler, http.MethodGet, "/api/nav", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, string(env.Data), `"Admin"`)
	assert.NotContains(t, string(env.Data), "events.manage")

	flowID := startFlow(t, handler)
	rec, _ = doJSON(t, handler, http.MethodPost, "/api/auth/flow/"+flowID+"/login", map[string]string{
		"email": "verified@example.com", "password": "pw",
	})
	cookie := sessionCookie(t, rec)

	rec, env = doJSON(t, handler, http.MethodGet, "/api/nav", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"Admin"`)
	assert.Contains(t, string(env.Data), "events.manage")
}

package eventgate

import (
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newTestEngine builds an engine against an in-process redis and the given
// backend handler. A nil handler installs a backend that fails every call.
func newTestEngine(t *testing.T, handler http.Handler, mutate func(*Config)) *Engine {
	t.Helper()
	return newTestEngineWith(t, handler, mutate, nil)
}

// newTestEngineWith additionally lets the test adjust the builder, e.g. to
// install custom roles or navigation.
func newTestEngineWith(t *testing.T, handler http.Handler, mutate func(*Config), adjust func(*Builder) *Builder) *Engine {
	t.Helper()

	if handler == nil {
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	cfg := defaultConfig()
	cfg.JWT.PrivateKey = priv
	cfg.JWT.PublicKey = pub
	cfg.Backend.BaseURL = srv.URL
	if mutate != nil {
		mutate(&cfg)
	}

	builder := New().WithConfig(cfg).WithRedis(client)
	if adjust != nil {
		builder = adjust(builder)
	}
	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func decodeBody(r *http.Request) map[string]string {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}

// authBackend answers the credential exchange endpoints the way the event
// platform does. OTP "123456" verifies; verified@ logs straight in and
// pending@ is sent to OTP verification.
func authBackend() http.Handler {
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, body any) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(r)
		switch body["email"] {
		case "verified@example.com":
			writeJSON(w, http.StatusOK, map[string]any{
				"token":     "bt-verified",
				"profileId": "p-1",
				"user": map[string]string{
					"_id": "u-1", "name": "Vera", "email": body["email"], "role": "ADMIN",
				},
			})
		case "pending@example.com":
			writeJSON(w, http.StatusOK, map[string]string{"message": "Verify your email"})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		}
	})
	mux.HandleFunc("POST /auth/verify-email", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(r)
		if body["otp"] != "123456" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid OTP"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":     "bt-new",
			"profileId": "p-2",
			"user": map[string]string{
				"_id": "u-2", "name": "Newt", "email": body["email"], "role": "ADMIN",
			},
		})
	})
	mux.HandleFunc("POST /auth/register/resend", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "OTP resent"})
	})

	return mux
}

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty base URL")
	}
	if _, err := New(Config{BaseURL: "   "}); err == nil {
		t.Fatal("expected error for blank base URL")
	}
}

func TestURLJoining(t *testing.T) {
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	}))

	// Base URL had a trailing slash, path has a leading slash. The join
	// must not produce a double slash.
	if _, err := c.Register(context.Background(), "n", "e", "p", "r"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if gotPath != "/auth/register" {
		t.Fatalf("path = %q, want /auth/register", gotPath)
	}
}

func TestLoginSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["email"] != "a@b.com" || body["password"] != "secret" {
			t.Errorf("body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token":     "bt-1",
			"profileId": "p-1",
			"user": map[string]string{
				"_id": "u-1", "name": "Ada", "email": "a@b.com", "role": "ADMIN",
			},
		})
	}))

	got, err := c.Login(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.Token != "bt-1" || got.ProfileID != "p-1" {
		t.Fatalf("payload = %+v", got)
	}
	if got.User == nil || got.User.ID != "u-1" || got.User.Role != "ADMIN" {
		t.Fatalf("user = %+v", got.User)
	}
}

func TestErrorMessageFromServer(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"Email already registered"}`, "Email already registered"},
		{"error field", `{"error":"invalid otp"}`, "invalid otp"},
		{"empty body", ``, "Login failed"},
		{"non-json body", `upstream exploded`, "Login failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))
			_, err := c.Login(context.Background(), "a@b.com", "x")
			if err == nil {
				t.Fatal("expected error")
			}
			be := AsError(err)
			if be == nil {
				t.Fatalf("error is not *Error: %v", err)
			}
			if be.Message != tt.want {
				t.Fatalf("message = %q, want %q", be.Message, tt.want)
			}
			if be.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", be.StatusCode)
			}
		})
	}
}

func TestTransportErrorMessage(t *testing.T) {
	c, err := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Login(context.Background(), "a@b.com", "x")
	if err == nil {
		t.Fatal("expected transport error")
	}
	be := AsError(err)
	if be == nil {
		t.Fatalf("error is not *Error: %v", err)
	}
	if be.Message == "" {
		t.Fatal("message empty")
	}
	if be.Unwrap() == nil {
		t.Fatal("transport cause not preserved")
	}
}

func TestVerifyOTP(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/verify-email" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token":     "bt-2",
			"profileId": "p-2",
			"user": map[string]string{
				"_id": "u-2", "name": "Bea", "email": "b@c.com", "role": "MEMBER",
			},
		})
	}))

	got, err := c.VerifyOTP(context.Background(), "b@c.com", "123456")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if got.Token != "bt-2" || got.User.Email != "b@c.com" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestResendOTPFallbackMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	err := c.ResendOTP(context.Background(), "a@b.com")
	be := AsError(err)
	if be == nil {
		t.Fatalf("error is not *Error: %v", err)
	}
	if be.Message != "Failed to resend OTP" {
		t.Fatalf("message = %q", be.Message)
	}
}

func TestContextCancellation(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(func() { close(block) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Login(ctx, "a@b.com", "x")
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("cause = %v, want deadline exceeded", err)
	}
}

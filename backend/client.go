package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every backend call. Without it a hung backend would
// leave the caller in a permanent loading state.
const DefaultTimeout = 15 * time.Second

// Config configures the backend client.
type Config struct {
	// BaseURL is the backend root. Trailing slashes are tolerated.
	BaseURL string
	// Timeout defaults to [DefaultTimeout] when zero.
	Timeout time.Duration
	// HTTPClient overrides the transport; mainly for tests.
	HTTPClient *http.Client
}

// Client calls the event-platform backend. Safe for concurrent use.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Error is the normalized failure of one backend operation. Message is
// always set and suitable for inline display.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// AsError unwraps err into a backend *[Error], or nil.
func AsError(err error) *Error {
	var be *Error
	if errors.As(err, &be) {
		return be
	}
	return nil
}

// New validates cfg and returns a ready client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("backend base URL required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpc:   httpc,
	}, nil
}

// url joins the base URL with path. All path joining goes through here:
// the previous front-end mixed slashed and unslashed spellings per call
// site, which broke under some environment configurations.
func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Register creates an account pending OTP verification.
func (c *Client) Register(ctx context.Context, name, email, password, registrationID string) (*RegisterPayload, error) {
	body := map[string]string{
		"name":           name,
		"email":          email,
		"password":       password,
		"registrationID": registrationID,
	}
	var out RegisterPayload
	if err := c.postJSON(ctx, "register", "/auth/register", "Registration failed", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges email+password. The returned payload carries a token only
// for verified accounts.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginPayload, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var out LoginPayload
	if err := c.postJSON(ctx, "login", "/auth/login", "Login failed", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP confirms the one-time code. This is the only operation that
// yields a usable identity with a backend token.
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (*VerifyPayload, error) {
	body := map[string]string{
		"email": email,
		"otp":   otp,
	}
	var out VerifyPayload
	if err := c.postJSON(ctx, "verify_otp", "/auth/verify-email", "OTP verification failed", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendOTP asks the backend to send a fresh code. Success carries no
// payload beyond the acknowledgment.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	body := map[string]string{
		"email": email,
	}
	return c.postJSON(ctx, "resend_otp", "/auth/register/resend", "Failed to resend OTP", body, nil)
}

// serverMessage is the error envelope the backend uses for non-2xx replies.
type serverMessage struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) postJSON(ctx context.Context, op, path, fallback string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return &Error{Op: op, Message: fallback, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(encoded))
	if err != nil {
		return &Error{Op: op, Message: fallback, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, op, fallback, out)
}

func (c *Client) do(req *http.Request, op, fallback string, out any) error {
	res, err := c.httpc.Do(req)
	if err != nil {
		return &Error{Op: op, Message: transportMessage(err, fallback), Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return &Error{Op: op, StatusCode: res.StatusCode, Message: transportMessage(err, fallback), Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := fallback
		var envelope serverMessage
		if err := json.Unmarshal(data, &envelope); err == nil {
			switch {
			case envelope.Message != "":
				msg = envelope.Message
			case envelope.Error != "":
				msg = envelope.Error
			}
		}
		return &Error{Op: op, StatusCode: res.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: op, StatusCode: res.StatusCode, Message: fallback, Err: err}
	}
	return nil
}

func transportMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

package eventgate

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by eventgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT      JWTConfig
	Flow     FlowConfig
	Backend  BackendConfig
	Cookie   CookieConfig
	Redirect RedirectConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by eventgate APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	SessionTTL    time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
FLOW CONFIG
====================================
*/

// FlowConfig defines a public type used by eventgate APIs.
//
// FlowConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FlowConfig struct {
	// TTL bounds how long an abandoned sign-in flow survives in redis.
	TTL time.Duration
	// SubmitGuardTTL bounds the single-exchange lock taken around each
	// backend credential call.
	SubmitGuardTTL time.Duration
	OTPDigits      int
	RedisPrefix    string
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig defines a public type used by eventgate APIs.
//
// BackendConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig defines a public type used by eventgate APIs.
//
// CookieConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CookieConfig struct {
	Name   string
	Path   string
	Domain string
	Secure bool
}

/*
====================================
REDIRECT CONFIG
====================================
*/

// RedirectConfig defines a public type used by eventgate APIs.
//
// RedirectConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RedirectConfig struct {
	AdminPath       string
	ParticipantPath string
	MemberPath      string
	DefaultPath     string
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by eventgate APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
	MaxResendRequests     int
	ResendWindowDuration  time.Duration
}

// AuditConfig defines a public type used by eventgate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by eventgate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration. Callers adjust what
// they need and pass the result to [Builder.WithConfig]; signing keys and
// the backend base URL always have to be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SessionTTL:    30 * 24 * time.Hour,
			SigningMethod: "ed25519",
			Issuer:        "eventgate",
			Leeway:        30 * time.Second,
		},
		Flow: FlowConfig{
			TTL:            15 * time.Minute,
			SubmitGuardTTL: 20 * time.Second,
			OTPDigits:      6,
			RedisPrefix:    "efw",
		},
		Backend: BackendConfig{
			Timeout: 15 * time.Second,
		},
		Cookie: CookieConfig{
			Name: "eventgate_session",
			Path: "/",
		},
		Redirect: RedirectConfig{
			AdminPath:       "/admin",
			ParticipantPath: "/profile",
			MemberPath:      "/member",
			DefaultPath:     "/",
		},
		Security: SecurityConfig{
			EnableIPThrottle:      true,
			MaxLoginAttempts:      10,
			LoginCooldownDuration: 5 * time.Minute,
			MaxResendRequests:     3,
			ResendWindowDuration:  10 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or backend checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	return c.validate(true)
}

// validate checks the configuration. requireBackendURL is false when the
// caller supplies its own backend client, in which case Backend.BaseURL is
// never read.
func (c *Config) validate(requireBackendURL bool) error {
	if c.JWT.SessionTTL <= 0 {
		return errors.New("JWT SessionTTL must be positive")
	}
	switch strings.ToLower(c.JWT.SigningMethod) {
	case "ed25519", "hs256":
	default:
		return errors.New("JWT SigningMethod must be ed25519 or hs256")
	}
	if c.Flow.TTL <= 0 {
		return errors.New("Flow TTL must be positive")
	}
	if c.Flow.SubmitGuardTTL <= 0 {
		return errors.New("Flow SubmitGuardTTL must be positive")
	}
	if c.Flow.OTPDigits < 4 || c.Flow.OTPDigits > 10 {
		return errors.New("Flow OTPDigits must be between 4 and 10")
	}
	if c.Flow.RedisPrefix == "" {
		return errors.New("Flow RedisPrefix must not be empty")
	}
	if requireBackendURL && strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("Backend BaseURL required")
	}
	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("Security MaxLoginAttempts must be positive")
	}
	if c.Security.LoginCooldownDuration <= 0 {
		return errors.New("Security LoginCooldownDuration must be positive")
	}
	if c.Security.MaxResendRequests <= 0 {
		return errors.New("Security MaxResendRequests must be positive")
	}
	if c.Security.ResendWindowDuration <= 0 {
		return errors.New("Security ResendWindowDuration must be positive")
	}
	if c.Redirect.DefaultPath == "" {
		return errors.New("Redirect DefaultPath must not be empty")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be positive when audit is enabled")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

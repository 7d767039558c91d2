package main

import "github.com/kelseyhightower/envconfig"

type settings struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	BackendURL string `envconfig:"BACKEND_URL" required:"true"`

	// RedisAddr empty starts an embedded in-process redis. Fine for
	// development, useless for more than one replica.
	RedisAddr     string `envconfig:"REDIS_ADDR" default:""`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`

	// SessionSecret switches token signing to HS256 with this secret. When
	// empty an ephemeral Ed25519 key pair is generated at startup, which
	// invalidates all sessions on restart.
	SessionSecret string `envconfig:"SESSION_SECRET" default:""`

	CookieSecure bool   `envconfig:"COOKIE_SECURE" default:"false"`
	CookieDomain string `envconfig:"COOKIE_DOMAIN" default:""`

	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`
	AuditLog       bool `envconfig:"AUDIT_LOG" default:"false"`
}

func loadSettings() (settings, error) {
	var s settings
	if err := envconfig.Process("", &s); err != nil {
		return settings{}, err
	}
	return s, nil
}

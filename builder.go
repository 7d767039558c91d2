package eventgate

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/eventra/eventgate/backend"
	"github.com/eventra/eventgate/internal/audit"
	"github.com/eventra/eventgate/internal/rate"
	"github.com/eventra/eventgate/jwt"
	"github.com/eventra/eventgate/permission"
)

// Builder defines a public type used by eventgate APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	capabilities []string
	roles        map[string][]string
	nav          []NavItem

	backendClient *backend.Client
	auditSink     AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithBackend overrides the credential exchange client. When unset, Build
// constructs one from the Backend config section.
//
// WithBackend does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithBackend(client *backend.Client) *Builder {
	b.backendClient = client
	return b
}

// WithCapabilities describes the withcapabilities operation and its observable behavior.
//
// WithCapabilities does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithCapabilities(capabilities []string) *Builder {
	b.capabilities = capabilities
	return b
}

// WithRoles describes the withroles operation and its observable behavior.
//
// WithRoles does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRoles(r map[string][]string) *Builder {
	b.roles = r
	return b
}

// WithNav describes the withnav operation and its observable behavior.
//
// WithNav does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNav(items []NavItem) *Builder {
	b.nav = items
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or backend checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if b.backendClient == nil && cfg.Backend.BaseURL == "" {
		return nil, errors.New("backend client or Backend BaseURL required")
	}

	if err := cfg.validate(b.backendClient == nil); err != nil {
		return nil, err
	}

	capabilities := b.capabilities
	if len(capabilities) == 0 {
		capabilities = defaultCapabilities()
	}
	roles := b.roles
	if len(roles) == 0 {
		roles = defaultRoles()
	}
	nav := b.nav
	if nav == nil {
		nav = defaultNav()
	}

	// -------- CAPABILITY REGISTRY --------
	registry := permission.NewRegistry()

	for _, capability := range capabilities {
		if _, err := registry.Register(capability); err != nil {
			return nil, err
		}
	}

	registry.Freeze()

	// -------- ROLE MANAGER --------
	roleManager := permission.NewRoleManager(registry)

	for roleName, grants := range roles {
		if err := roleManager.RegisterRole(roleName, grants); err != nil {
			return nil, err
		}
	}

	roleManager.Freeze()

	backendClient := b.backendClient
	if backendClient == nil {
		var err error
		backendClient, err = backend.New(backend.Config{
			BaseURL: cfg.Backend.BaseURL,
			Timeout: cfg.Backend.Timeout,
		})
		if err != nil {
			return nil, err
		}
	}

	engine := &Engine{
		config:      cfg,
		registry:    registry,
		roleManager: roleManager,
		nav:         nav,
		backend:     backendClient,
	}

	engine.flowStore = newFlowStore(b.redis, cfg.Flow.RedisPrefix)
	engine.rateLimiter = rate.New(b.redis, rate.Config{
		EnableIPThrottle:      cfg.Security.EnableIPThrottle,
		MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
		LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
		MaxResendRequests:     cfg.Security.MaxResendRequests,
		ResendWindowDuration:  cfg.Security.ResendWindowDuration,
	})
	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	jm, err := jwt.NewManager(jwt.Config{
		SessionTTL:    cfg.JWT.SessionTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}

package eventgate

import (
	"context"
	"time"

	"github.com/eventra/eventgate/backend"
	"github.com/eventra/eventgate/internal/audit"
	"github.com/eventra/eventgate/internal/rate"
	"github.com/eventra/eventgate/jwt"
	"github.com/eventra/eventgate/permission"
)

// Engine defines a public type used by eventgate APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config      Config
	registry    *permission.Registry
	roleManager *permission.RoleManager
	flowStore   *flowStore
	rateLimiter *rate.Limiter
	audit       *audit.Dispatcher
	metrics     *Metrics
	jwtManager  *jwt.Manager
	backend     *backend.Client
	nav         []NavItem
}

// Close describes the close operation and its observable behavior.
//
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// CookieSettings exposes the session cookie configuration for transport
// layers that write and clear the cookie themselves.
//
// CookieSettings does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CookieSettings() CookieConfig {
	if e == nil {
		return defaultConfig().Cookie
	}
	return e.config.Cookie
}

// SessionTTL reports the configured session lifetime.
//
// SessionTTL does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SessionTTL() time.Duration {
	if e == nil {
		return 0
	}
	return e.config.JWT.SessionTTL
}

// RecordGateDecision counts a gate pass/deny. The middleware package calls
// this so gate traffic shows up next to the engine's own counters; denials
// are also audited with the denied path.
//
// RecordGateDecision does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RecordGateDecision(ctx context.Context, allowed bool, path string) {
	if allowed {
		e.metricInc(MetricGateAllowed)
		return
	}
	e.metricInc(MetricGateDenied)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditGateDeny,
		Success:   false,
		Metadata:  map[string]string{"path": path},
	})
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	e.audit.Emit(ctx, event)
}

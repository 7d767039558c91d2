package permission

import (
	"errors"
	"strings"
	"sync"
)

// RoleManager binds role names to capability masks. Role lookup is
// case-insensitive: the backend has been observed to spell roles with
// varying case.
type RoleManager struct {
	registry *Registry

	mu     sync.RWMutex
	roles  map[string]*Mask64
	frozen bool
}

// NewRoleManager creates a [RoleManager] over the given registry.
func NewRoleManager(registry *Registry) *RoleManager {
	return &RoleManager{
		registry: registry,
		roles:    make(map[string]*Mask64),
	}
}

// RegisterRole binds roleName to the named capabilities. Every capability
// must already be registered. Must be called before [RoleManager.Freeze].
func (rm *RoleManager) RegisterRole(roleName string, capabilities []string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.frozen {
		return errors.New("role manager frozen")
	}

	key := normalizeRole(roleName)
	if key == "" {
		return errors.New("role name empty")
	}
	if _, exists := rm.roles[key]; exists {
		return errors.New("role already registered")
	}

	mask := Mask64(0)
	for _, capability := range capabilities {
		bit, ok := rm.registry.Bit(capability)
		if !ok {
			return errors.New("capability not registered: " + capability)
		}
		mask.Set(bit)
	}

	rm.roles[key] = &mask
	return nil
}

// Freeze prevents further role registrations.
func (rm *RoleManager) Freeze() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.frozen = true
}

// Allowed reports whether the role grants the named capability. Unknown
// roles and unknown capabilities grant nothing.
func (rm *RoleManager) Allowed(role, capability string) bool {
	bit, ok := rm.registry.Bit(capability)
	if !ok {
		return false
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	mask, ok := rm.roles[normalizeRole(role)]
	if !ok {
		return false
	}
	return mask.Has(bit)
}

// Known reports whether the role is registered.
func (rm *RoleManager) Known(role string) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	_, ok := rm.roles[normalizeRole(role)]
	return ok
}

// Mask returns a copy of the role's capability mask, or false for an
// unknown role.
func (rm *RoleManager) Mask(role string) (Mask64, bool) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	mask, ok := rm.roles[normalizeRole(role)]
	if !ok {
		return 0, false
	}
	return *mask, true
}

func normalizeRole(role string) string {
	return strings.ToUpper(strings.TrimSpace(role))
}

package eventgate

// Capability names used by the default navigation tree and the default role
// grants. Callers may register their own set through the builder.
const (
	CapDashboardView = "dashboard.view"
	CapEventsView    = "events.view"
	CapEventsManage  = "events.manage"
	CapMembersView   = "members.view"
	CapMembersManage = "members.manage"
	CapProfileView   = "profile.view"
	CapAdminPanel    = "admin.panel"
)

// NavItem defines a public type used by eventgate APIs.
//
// NavItem instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type NavItem struct {
	ID    string
	Label string
	Path  string
	// Capability gates visibility. An empty capability means the item is
	// visible to every visitor, authenticated or not.
	Capability string
	Children   []NavItem
}

func defaultCapabilities() []string {
	return []string{
		CapDashboardView,
		CapEventsView,
		CapEventsManage,
		CapMembersView,
		CapMembersManage,
		CapProfileView,
		CapAdminPanel,
	}
}

func defaultRoles() map[string][]string {
	return map[string][]string{
		RoleAdmin: {
			CapDashboardView,
			CapEventsView,
			CapEventsManage,
			CapMembersView,
			CapMembersManage,
			CapProfileView,
			CapAdminPanel,
		},
		RoleParticipant: {
			CapDashboardView,
			CapEventsView,
			CapProfileView,
		},
		RoleMember: {
			CapDashboardView,
			CapEventsView,
			CapMembersView,
			CapProfileView,
		},
		RolePublic: {},
	}
}

func defaultNav() []NavItem {
	return []NavItem{
		{ID: "home", Label: "Home", Path: "/"},
		{ID: "events", Label: "Events", Path: "/events", Capability: CapEventsView, Children: []NavItem{
			{ID: "events-all", Label: "All Events", Path: "/events", Capability: CapEventsView},
			{ID: "events-new", Label: "Create Event", Path: "/admin/events/new", Capability: CapEventsManage},
		}},
		{ID: "members", Label: "Members", Path: "/members", Capability: CapMembersView},
		{ID: "profile", Label: "Profile", Path: "/profile", Capability: CapProfileView},
		{ID: "admin", Label: "Admin", Path: "/admin", Capability: CapAdminPanel, Children: []NavItem{
			{ID: "admin-dashboard", Label: "Dashboard", Path: "/admin", Capability: CapAdminPanel},
			{ID: "admin-roles", Label: "Roles", Path: "/admin/roles", Capability: CapMembersManage},
		}},
	}
}

// NavForRole returns the navigation tree filtered to the items the role may
// see. The public role gets only ungated items.
//
// NavForRole does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) NavForRole(role string) []NavItem {
	if e == nil || e.roleManager == nil {
		return nil
	}
	if role == "" {
		role = RolePublic
	}
	return filterNav(e.nav, func(capability string) bool {
		if capability == "" {
			return true
		}
		return e.roleManager.Allowed(role, capability)
	})
}

// Capabilities returns the registered capability names in registration
// order.
//
// Capabilities does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Capabilities() []string {
	if e == nil || e.registry == nil {
		return nil
	}
	out := make([]string, 0, e.registry.Count())
	for bit := 0; bit < e.registry.Count(); bit++ {
		if name, ok := e.registry.Name(bit); ok {
			out = append(out, name)
		}
	}
	return out
}

// GrantedCapabilities returns the subset of registered capabilities the role
// holds.
//
// GrantedCapabilities does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) GrantedCapabilities(role string) []string {
	all := e.Capabilities()
	out := make([]string, 0, len(all))
	for _, capability := range all {
		if e.Can(role, capability) {
			out = append(out, capability)
		}
	}
	return out
}

// Can reports whether the role holds the capability.
//
// Can does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Can(role, capability string) bool {
	if e == nil || e.roleManager == nil {
		return false
	}
	if role == "" {
		role = RolePublic
	}
	return e.roleManager.Allowed(role, capability)
}

func filterNav(items []NavItem, allowed func(string) bool) []NavItem {
	out := make([]NavItem, 0, len(items))
	for _, item := range items {
		if !allowed(item.Capability) {
			continue
		}
		kept := item
		kept.Children = filterNav(item.Children, allowed)
		out = append(out, kept)
	}
	return out
}

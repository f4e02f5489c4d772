package domain

import (
	"bytes"
	"strings"
)

// Role enumerates account roles.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAdmin     Role = "ADMIN"
	RoleRootAdmin Role = "ROOT_ADMIN"
)

// ParseRole normalizes casing and separators ("admin", "Root-Admin", "root admin").
// Unknown values resolve to RoleUser with ok=false.
func ParseRole(s string) (Role, bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch norm {
	case "USER", "CUSTOMER":
		return RoleUser, true
	case "ADMIN":
		return RoleAdmin, true
	case "ROOT_ADMIN", "ROOTADMIN", "SUPERADMIN", "SUPER_ADMIN":
		return RoleRootAdmin, true
	}
	return RoleUser, false
}

// UnmarshalText normalizes the role on decode. An empty role stays empty.
func (r *Role) UnmarshalText(text []byte) error {
	if len(bytes.TrimSpace(text)) == 0 {
		*r = ""
		return nil
	}
	*r, _ = ParseRole(string(text))
	return nil
}

// Capability names an action gated by role.
type Capability string

const (
	CapModerateRequests Capability = "requests:moderate"
	CapDeleteRequests   Capability = "requests:delete"
	CapViewAllRequests  Capability = "requests:view_all"
	CapManageUsers      Capability = "users:manage"
	CapManageAdmins     Capability = "admins:manage"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleUser: {},
	RoleAdmin: {
		CapModerateRequests: {},
		CapDeleteRequests:   {},
		CapViewAllRequests:  {},
		CapManageUsers:      {},
	},
	RoleRootAdmin: {
		CapModerateRequests: {},
		CapDeleteRequests:   {},
		CapViewAllRequests:  {},
		CapManageUsers:      {},
		CapManageAdmins:     {},
	},
}

// Can is the single capability check consulted by every gated action.
func (r Role) Can(c Capability) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[c]
	return ok
}

// IsStaff reports whether the role may see every request.
func (r Role) IsStaff() bool {
	return r.Can(CapViewAllRequests)
}

// CanBlock reports whether actor may change target's blocked status.
// Root admins cannot be blocked; admins only by root admins.
func CanBlock(actor, target Role) bool {
	if !actor.Can(CapManageUsers) {
		return false
	}
	switch target {
	case RoleRootAdmin:
		return false
	case RoleAdmin:
		return actor.Can(CapManageAdmins)
	}
	return true
}

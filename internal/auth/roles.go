package auth

import "strings"

// Role is the closed set of account roles.
type Role string

const (
	RoleNone  Role = ""
	RoleAdmin Role = "admin"
)

// Capability is a single permission; capabilities combine as bit sets.
type Capability uint8

const (
	CapManageProjects Capability = 1 << iota
	CapManagePosts
	CapReadInbox
)

var roleCapabilities = map[Role]Capability{
	RoleAdmin: CapManageProjects | CapManagePosts | CapReadInbox,
}

// ParseRole maps a stored role string onto the enum. Unknown values become
// RoleNone, which holds no capabilities.
func ParseRole(role string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(role))) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleNone
	}
}

// Can reports whether the role grants every capability in c.
func (r Role) Can(c Capability) bool {
	if c == 0 {
		return false
	}
	return roleCapabilities[r]&c == c
}

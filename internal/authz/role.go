package authz

import (
	"fmt"
	"strings"
)

// Role identifies one of the fixed roles. The string values are persisted on
// user rows and in audit entries and must remain stable.
type Role string

// Role vocabulary.
const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleDirector   Role = "DIRECTOR"
	RoleProfesor   Role = "PROFESOR"
	RoleUser       Role = "USER"
)

// CaseScope describes how far a role may reach into case records.
type CaseScope string

// Case scope levels.
const (
	CaseScopeAll       CaseScope = "all"
	CaseScopeOwnSchool CaseScope = "own-school"
	CaseScopeNone      CaseScope = "none"
)

// Capabilities is the immutable capability descriptor for a role. All call
// sites consult this single source instead of re-deriving role comparisons.
type Capabilities struct {
	// ManageableRoles lists the roles this role may create or delete.
	ManageableRoles []Role
	CanManageSchools bool
	Cases            CaseScope
	CanUploadLibrary bool
	// AutoApproves means PUBLIC library uploads by this role skip the
	// pending-approval state.
	AutoApproves bool
}

// CanManage reports whether the capability set covers the target role.
func (c Capabilities) CanManage(target Role) bool {
	for _, role := range c.ManageableRoles {
		if role == target {
			return true
		}
	}
	return false
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID       uint
	Role     Role
	SchoolID *uint
}

// IsAdministrator reports whether the role is system-wide privileged.
func (r Role) IsAdministrator() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// Known reports whether the role belongs to the fixed vocabulary.
func (r Role) Known() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleDirector, RoleProfesor, RoleUser:
		return true
	}
	return false
}

// ParseRole normalises an incoming role string. The boolean is false when the
// value is outside the vocabulary.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(value)))
	return role, role.Known()
}

// CapabilitiesFor returns the capability descriptor for a role. An unknown
// role is a configuration error, not an input error, so it panics rather than
// returning a zero descriptor that would silently deny everything.
func CapabilitiesFor(role Role) Capabilities {
	switch role {
	case RoleSuperAdmin:
		return Capabilities{
			ManageableRoles:  []Role{RoleSuperAdmin, RoleAdmin, RoleDirector, RoleProfesor, RoleUser},
			CanManageSchools: true,
			Cases:            CaseScopeAll,
			CanUploadLibrary: true,
			AutoApproves:     true,
		}
	case RoleAdmin:
		return Capabilities{
			ManageableRoles:  []Role{RoleDirector, RoleProfesor, RoleUser},
			CanManageSchools: true,
			Cases:            CaseScopeAll,
			CanUploadLibrary: true,
			AutoApproves:     true,
		}
	case RoleDirector:
		return Capabilities{
			ManageableRoles:  []Role{RoleProfesor},
			Cases:            CaseScopeOwnSchool,
			CanUploadLibrary: true,
		}
	case RoleProfesor:
		return Capabilities{
			Cases: CaseScopeOwnSchool,
		}
	case RoleUser:
		return Capabilities{
			Cases: CaseScopeNone,
		}
	default:
		panic(fmt.Sprintf("authz: unknown role %q", role))
	}
}

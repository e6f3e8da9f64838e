package authz

import "github.com/noah-isme/sima-go-api/internal/models"

// CanViewUser decides profile reads. Everyone may read their own profile;
// administrators may read any; directors may read accounts of their school.
func CanViewUser(actor Actor, target models.User) Decision {
	if actor.ID == target.ID {
		return Allow()
	}
	if actor.Role.IsAdministrator() {
		return Allow()
	}
	if actor.Role == RoleDirector && SameSchool(actor, target.SchoolID) {
		return Allow()
	}
	return Deny("not allowed to view this profile")
}

// CanCreateUser decides account creation. DIRECTOR and PROFESOR accounts must
// carry a school; directors may only create professors in their own school.
func CanCreateUser(actor Actor, newRole Role, schoolID *uint) Decision {
	if !CapabilitiesFor(actor.Role).CanManage(newRole) {
		return Deny(ReasonInsufficientRole)
	}
	if (newRole == RoleDirector || newRole == RoleProfesor) && schoolID == nil {
		return Deny(ReasonSchoolRequired)
	}
	if actor.Role == RoleDirector && !SameSchool(actor, schoolID) {
		return Deny(ReasonOutsideSchool)
	}
	return Allow()
}

// CanUpdateUser decides edits of non-privileged profile fields. Role changes
// are governed separately by CanChangeRole.
func CanUpdateUser(actor Actor, target models.User) Decision {
	if actor.ID == target.ID {
		return Allow()
	}
	targetRole, ok := ParseRole(target.Role)
	if !ok {
		return Deny(ReasonInsufficientRole)
	}
	if !CapabilitiesFor(actor.Role).CanManage(targetRole) {
		return Deny(ReasonInsufficientRole)
	}
	if actor.Role == RoleDirector && !SameSchool(actor, target.SchoolID) {
		return Deny(ReasonOutsideSchool)
	}
	return Allow()
}

// CanChangeRole decides role reassignment. Only SUPER_ADMIN may change roles,
// and never its own, which would allow self-escalation or self-lockout.
func CanChangeRole(actor Actor, target models.User) Decision {
	if actor.Role != RoleSuperAdmin {
		return Deny("only SUPER_ADMIN may change roles")
	}
	if actor.ID == target.ID {
		return Deny("cannot change your own role")
	}
	return Allow()
}

// CanDeleteUser decides account deletion. Self-deletion is always refused;
// ADMIN may not remove ADMIN or SUPER_ADMIN accounts; directors may remove
// only professors of their own school.
func CanDeleteUser(actor Actor, target models.User) Decision {
	if actor.ID == target.ID {
		return Deny("cannot delete your own account")
	}
	targetRole, ok := ParseRole(target.Role)
	if !ok {
		return Deny(ReasonInsufficientRole)
	}
	if actor.Role == RoleAdmin && targetRole.IsAdministrator() {
		return Deny("only SUPER_ADMIN may delete administrator accounts")
	}
	if !CapabilitiesFor(actor.Role).CanManage(targetRole) {
		return Deny(ReasonInsufficientRole)
	}
	if actor.Role == RoleDirector && !SameSchool(actor, target.SchoolID) {
		return Deny(ReasonOutsideSchool)
	}
	return Allow()
}

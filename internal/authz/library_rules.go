package authz

import "github.com/noah-isme/sima-go-api/internal/models"

// CanUploadLibrary decides whether the actor may add library items at all.
func CanUploadLibrary(actor Actor) Decision {
	caps := CapabilitiesFor(actor.Role)
	if !caps.CanUploadLibrary {
		return Deny("role may not upload library items")
	}
	if actor.Role == RoleDirector && actor.SchoolID == nil {
		return Deny(ReasonNoSchoolScope)
	}
	return Allow()
}

// CanEditLibraryItem decides edits and deletes. Administrators always may;
// the original creator may only while they are a director of the school the
// item still belongs to. Reassigning a director to another school therefore
// revokes edit rights on old-school items.
func CanEditLibraryItem(actor Actor, item models.LibraryItem) Decision {
	if actor.Role.IsAdministrator() {
		return Allow()
	}
	if actor.Role == RoleDirector && actor.ID == item.CreatedBy && SameSchool(actor, item.SchoolID) {
		return Allow()
	}
	return Deny("not allowed to modify this library item")
}

// CanApproveLibrary decides whether the actor may approve pending PUBLIC
// items.
func CanApproveLibrary(actor Actor) Decision {
	if actor.Role.IsAdministrator() {
		return Allow()
	}
	return Deny("only administrators may approve library items")
}

// CanViewLibraryItem mirrors the list visibility union for a single item. It
// must stay consistent with LibraryScopeFor.
func CanViewLibraryItem(actor Actor, item models.LibraryItem) Decision {
	if actor.Role.IsAdministrator() {
		return Allow()
	}
	switch actor.Role {
	case RoleDirector:
		if actor.SchoolID == nil {
			return Deny(ReasonNoSchoolScope)
		}
		if SameSchool(actor, item.SchoolID) {
			return Allow()
		}
		if item.Visibility == models.VisibilityPublic && item.IsApproved {
			return Allow()
		}
	case RoleProfesor:
		if actor.SchoolID == nil {
			return Deny(ReasonNoSchoolScope)
		}
		if item.Visibility == models.VisibilityPrivate && SameSchool(actor, item.SchoolID) {
			return Allow()
		}
		if item.Visibility == models.VisibilityPublic && item.IsApproved {
			return Allow()
		}
	}
	return Deny("not allowed to view this library item")
}

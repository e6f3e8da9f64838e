package authz

import "github.com/noah-isme/sima-go-api/internal/models"

// CanViewSchool decides single-school read access. Scoped roles may see only
// the school they belong to.
func CanViewSchool(actor Actor, school models.School) Decision {
	if actor.Role.IsAdministrator() {
		return Allow()
	}
	if SameSchool(actor, &school.ID) {
		return Allow()
	}
	return Deny(ReasonOutsideSchool)
}

// CanManageSchool decides creation and edits of schools.
func CanManageSchool(actor Actor) Decision {
	if CapabilitiesFor(actor.Role).CanManageSchools {
		return Allow()
	}
	return Deny("only administrators may manage schools")
}

// CanDeleteSchool decides school deletion. The zero-active-users precondition
// is a business rule, not an access rule: it is re-checked transactionally at
// mutation time by the repository, not here.
func CanDeleteSchool(actor Actor) Decision {
	return CanManageSchool(actor)
}

package authz

import "github.com/noah-isme/sima-go-api/internal/models"

// CanViewCase decides single-case read access. Administrators see every case;
// scoped roles see only their own school.
func CanViewCase(actor Actor, record models.CaseRecord) Decision {
	caps := CapabilitiesFor(actor.Role)
	switch caps.Cases {
	case CaseScopeAll:
		return Allow()
	case CaseScopeOwnSchool:
		if actor.SchoolID == nil {
			return Deny(ReasonNoSchoolScope)
		}
		if !SameSchoolID(actor, record.SchoolID) {
			return Deny(ReasonOutsideSchool)
		}
		return Allow()
	default:
		return Deny(ReasonInsufficientRole)
	}
}

// CanCreateCase decides whether the actor may register a case for the given
// school. Administrators must name a school explicitly; scoped roles may only
// target their own.
func CanCreateCase(actor Actor, schoolID uint) Decision {
	caps := CapabilitiesFor(actor.Role)
	switch caps.Cases {
	case CaseScopeAll:
		if schoolID == 0 {
			return Deny(ReasonSchoolRequired)
		}
		return Allow()
	case CaseScopeOwnSchool:
		if actor.SchoolID == nil {
			return Deny(ReasonNoSchoolScope)
		}
		if !SameSchoolID(actor, schoolID) {
			return Deny(ReasonOutsideSchool)
		}
		return Allow()
	default:
		return Deny(ReasonInsufficientRole)
	}
}

// CanUpdateCase decides case edits; status changes count as updates.
func CanUpdateCase(actor Actor, record models.CaseRecord) Decision {
	return CanViewCase(actor, record)
}

// CanDeleteCase decides soft deletion of a case. Only administrators may
// delete, regardless of school.
func CanDeleteCase(actor Actor, record models.CaseRecord) Decision {
	if actor.Role.IsAdministrator() {
		return Allow()
	}
	return Deny("only administrators may delete cases")
}

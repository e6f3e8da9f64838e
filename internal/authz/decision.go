package authz

// Decision is the outcome of a permission evaluation. Deny reasons are stable
// strings suitable for direct user display; they never carry internal detail.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns a permitting decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a rejecting decision with a user-displayable reason.
func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Common deny reasons shared across rules.
const (
	ReasonInsufficientRole = "insufficient permissions for this action"
	ReasonOutsideSchool    = "resource belongs to another school"
	ReasonSchoolRequired   = "school required"
	ReasonNoSchoolScope    = "account has no school assigned"
)

package authz

// SameSchool reports whether the actor's school scope matches the entity's
// school. It is never true for actors without a school (SUPER_ADMIN, ADMIN,
// USER); rules must check the role before falling back here, otherwise they
// would accidentally deny administrators.
func SameSchool(actor Actor, schoolID *uint) bool {
	if actor.SchoolID == nil || schoolID == nil {
		return false
	}
	return *actor.SchoolID == *schoolID
}

// SameSchoolID is SameSchool for entities whose school reference is not
// nullable (cases).
func SameSchoolID(actor Actor, schoolID uint) bool {
	return SameSchool(actor, &schoolID)
}

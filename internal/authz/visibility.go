package authz

import (
	"gorm.io/gorm"

	"github.com/noah-isme/sima-go-api/internal/models"
)

// Scope is a declarative selection predicate applied to list queries by the
// repositories. Soft-deleted rows are excluded before any role clause.
type Scope func(*gorm.DB) *gorm.DB

// NotDeleted excludes soft-deleted rows. Every visibility scope applies it
// first.
func NotDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_at IS NULL")
}

func matchNothing(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

// CaseScopeFor builds the case list predicate for the actor. USER and
// school-less scoped roles get an explicit empty result, not an error.
func CaseScopeFor(actor Actor) Scope {
	caps := CapabilitiesFor(actor.Role)
	return func(db *gorm.DB) *gorm.DB {
		db = NotDeleted(db)
		switch caps.Cases {
		case CaseScopeAll:
			return db
		case CaseScopeOwnSchool:
			if actor.SchoolID == nil {
				return matchNothing(db)
			}
			return db.Where("school_id = ?", *actor.SchoolID)
		default:
			return matchNothing(db)
		}
	}
}

// SchoolScopeFor builds the school list predicate for the actor.
func SchoolScopeFor(actor Actor) Scope {
	return func(db *gorm.DB) *gorm.DB {
		db = NotDeleted(db)
		if actor.Role.IsAdministrator() {
			return db
		}
		if actor.SchoolID != nil {
			return db.Where("id = ?", *actor.SchoolID)
		}
		return matchNothing(db)
	}
}

// UserScopeFor builds the user list predicate. Directors list their school's
// accounts; everyone else without system-wide reach sees only themselves.
func UserScopeFor(actor Actor) Scope {
	return func(db *gorm.DB) *gorm.DB {
		db = NotDeleted(db)
		if actor.Role.IsAdministrator() {
			return db
		}
		if actor.Role == RoleDirector && actor.SchoolID != nil {
			return db.Where("school_id = ?", *actor.SchoolID)
		}
		return db.Where("id = ?", actor.ID)
	}
}

// LibraryScopeFor builds the library list predicate: a union of disjoint
// clauses per role. A director sees their own school's items in any approval
// state plus approved PUBLIC items from elsewhere; a professor sees their
// school's PRIVATE items plus approved PUBLIC items from any school.
func LibraryScopeFor(actor Actor) Scope {
	return func(db *gorm.DB) *gorm.DB {
		db = NotDeleted(db)
		if actor.Role.IsAdministrator() {
			return db
		}
		switch actor.Role {
		case RoleDirector:
			if actor.SchoolID == nil {
				return matchNothing(db)
			}
			return db.Where(
				"school_id = ? OR (visibility = ? AND is_approved = ? AND (school_id IS NULL OR school_id <> ?))",
				*actor.SchoolID, models.VisibilityPublic, true, *actor.SchoolID,
			)
		case RoleProfesor:
			if actor.SchoolID == nil {
				return matchNothing(db)
			}
			return db.Where(
				"(school_id = ? AND visibility = ?) OR (visibility = ? AND is_approved = ?)",
				*actor.SchoolID, models.VisibilityPrivate, models.VisibilityPublic, true,
			)
		default:
			return matchNothing(db)
		}
	}
}

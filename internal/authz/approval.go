package authz

import (
	"time"

	"github.com/noah-isme/sima-go-api/internal/models"
)

// ApprovalState describes where a library item sits in the sign-off workflow.
type ApprovalState string

// Approval states. PRIVATE items are implicitly approved; PUBLIC items by
// non-administrators wait in PUBLIC_PENDING until an administrator signs off.
const (
	ApprovalPrivate  ApprovalState = "PRIVATE"
	ApprovalPending  ApprovalState = "PUBLIC_PENDING"
	ApprovalApproved ApprovalState = "PUBLIC_APPROVED"
)

// StateOf derives the approval state from an item's stored fields.
func StateOf(item models.LibraryItem) ApprovalState {
	if item.Visibility != models.VisibilityPublic {
		return ApprovalPrivate
	}
	if item.IsApproved {
		return ApprovalApproved
	}
	return ApprovalPending
}

// StampInitialApproval sets the approval fields of a freshly created item
// according to the creator's role and the requested visibility.
func StampInitialApproval(actor Actor, item *models.LibraryItem, now time.Time) ApprovalState {
	if item.Visibility != models.VisibilityPublic {
		item.IsApproved = true
		item.ApprovedBy = nil
		item.ApprovedAt = nil
		return ApprovalPrivate
	}
	if CapabilitiesFor(actor.Role).AutoApproves {
		stamp(item, actor.ID, now)
		return ApprovalApproved
	}
	item.IsApproved = false
	item.ApprovedBy = nil
	item.ApprovedAt = nil
	return ApprovalPending
}

// ApplyVisibilityChange transitions the approval fields when an edit changes
// the item's visibility. Going PRIVATE and back to PUBLIC always re-enters
// PENDING unless the editor auto-approves; prior approval stamps are cleared.
func ApplyVisibilityChange(actor Actor, item *models.LibraryItem, visibility string, now time.Time) ApprovalState {
	if visibility == item.Visibility {
		return StateOf(*item)
	}
	item.Visibility = visibility
	if visibility != models.VisibilityPublic {
		item.IsApproved = true
		item.ApprovedBy = nil
		item.ApprovedAt = nil
		return ApprovalPrivate
	}
	if CapabilitiesFor(actor.Role).AutoApproves {
		stamp(item, actor.ID, now)
		return ApprovalApproved
	}
	item.IsApproved = false
	item.ApprovedBy = nil
	item.ApprovedAt = nil
	return ApprovalPending
}

// Approve performs the explicit PUBLIC_PENDING -> PUBLIC_APPROVED transition.
// The caller must have passed CanApproveLibrary first.
func Approve(actor Actor, item *models.LibraryItem, now time.Time) bool {
	if StateOf(*item) != ApprovalPending {
		return false
	}
	stamp(item, actor.ID, now)
	return true
}

func stamp(item *models.LibraryItem, approver uint, now time.Time) {
	item.IsApproved = true
	item.ApprovedBy = &approver
	item.ApprovedAt = &now
}

package authz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sima-go-api/internal/models"
)

func TestInitialApprovalByCreatorRole(t *testing.T) {
	now := time.Now()

	private := models.LibraryItem{Visibility: models.VisibilityPrivate}
	state := StampInitialApproval(Actor{ID: 1, Role: RoleDirector, SchoolID: uintPtr(5)}, &private, now)
	require.Equal(t, ApprovalPrivate, state)
	require.True(t, private.IsApproved, "private items are implicitly approved")
	require.Nil(t, private.ApprovedBy)

	directorPublic := models.LibraryItem{Visibility: models.VisibilityPublic}
	state = StampInitialApproval(Actor{ID: 1, Role: RoleDirector, SchoolID: uintPtr(5)}, &directorPublic, now)
	require.Equal(t, ApprovalPending, state)
	require.False(t, directorPublic.IsApproved)

	adminPublic := models.LibraryItem{Visibility: models.VisibilityPublic}
	state = StampInitialApproval(Actor{ID: 9, Role: RoleAdmin}, &adminPublic, now)
	require.Equal(t, ApprovalApproved, state)
	require.True(t, adminPublic.IsApproved)
	require.NotNil(t, adminPublic.ApprovedBy)
	require.Equal(t, uint(9), *adminPublic.ApprovedBy)
	require.NotNil(t, adminPublic.ApprovedAt)
}

func TestApprovalOneWayWithoutAdmin(t *testing.T) {
	now := time.Now()
	director := Actor{ID: 1, Role: RoleDirector, SchoolID: uintPtr(5)}
	admin := Actor{ID: 9, Role: RoleAdmin}

	item := models.LibraryItem{Visibility: models.VisibilityPublic}
	require.Equal(t, ApprovalPending, StampInitialApproval(director, &item, now))

	ok := Approve(admin, &item, now)
	require.True(t, ok)
	require.True(t, item.IsApproved)
	require.NotNil(t, item.ApprovedBy)
	require.NotNil(t, item.ApprovedAt)

	// A second approval is a no-op transition.
	require.False(t, Approve(admin, &item, now))

	// Editing unrelated fields must not reset approval; only a visibility
	// round-trip through PRIVATE re-enters PENDING.
	require.Equal(t, ApprovalApproved, StateOf(item))

	state := ApplyVisibilityChange(director, &item, models.VisibilityPrivate, now)
	require.Equal(t, ApprovalPrivate, state)
	require.Nil(t, item.ApprovedBy, "stamps cleared when leaving PUBLIC")

	state = ApplyVisibilityChange(director, &item, models.VisibilityPublic, now)
	require.Equal(t, ApprovalPending, state)
	require.False(t, item.IsApproved)
}

func TestAdminVisibilityEditApprovesImmediately(t *testing.T) {
	now := time.Now()
	admin := Actor{ID: 9, Role: RoleSuperAdmin}

	item := models.LibraryItem{Visibility: models.VisibilityPrivate, IsApproved: true}
	state := ApplyVisibilityChange(admin, &item, models.VisibilityPublic, now)
	require.Equal(t, ApprovalApproved, state)
	require.NotNil(t, item.ApprovedBy)
	require.Equal(t, uint(9), *item.ApprovedBy)
}

func TestApproveRejectsNonPendingItems(t *testing.T) {
	now := time.Now()
	admin := Actor{ID: 9, Role: RoleAdmin}

	private := models.LibraryItem{Visibility: models.VisibilityPrivate, IsApproved: true}
	require.False(t, Approve(admin, &private, now))
}

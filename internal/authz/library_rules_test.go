package authz

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sima-go-api/internal/models"
)

func TestLibraryEditRevokedAfterSchoolReassignment(t *testing.T) {
	item := models.LibraryItem{ID: 1, CreatedBy: 10, SchoolID: uintPtr(5)}

	creator := Actor{ID: 10, Role: RoleDirector, SchoolID: uintPtr(5)}
	require.True(t, CanEditLibraryItem(creator, item).Allowed)

	// Director moved to another school: scope, not ownership, governs edits.
	reassigned := Actor{ID: 10, Role: RoleDirector, SchoolID: uintPtr(6)}
	require.False(t, CanEditLibraryItem(reassigned, item).Allowed)

	require.True(t, CanEditLibraryItem(Actor{ID: 2, Role: RoleAdmin}, item).Allowed)
	require.False(t, CanEditLibraryItem(Actor{ID: 3, Role: RoleProfesor, SchoolID: uintPtr(5)}, item).Allowed)
}

func TestUploadLibraryByRole(t *testing.T) {
	require.True(t, CanUploadLibrary(Actor{ID: 1, Role: RoleAdmin}).Allowed)
	require.True(t, CanUploadLibrary(Actor{ID: 2, Role: RoleDirector, SchoolID: uintPtr(5)}).Allowed)
	require.False(t, CanUploadLibrary(Actor{ID: 3, Role: RoleDirector}).Allowed, "director without school")
	require.False(t, CanUploadLibrary(Actor{ID: 4, Role: RoleProfesor, SchoolID: uintPtr(5)}).Allowed)
	require.False(t, CanUploadLibrary(Actor{ID: 5, Role: RoleUser}).Allowed)
}

func TestViewLibraryItemMirrorsListUnion(t *testing.T) {
	ownPrivate := models.LibraryItem{ID: 1, SchoolID: uintPtr(5), Visibility: models.VisibilityPrivate, IsApproved: true}
	ownPendingPublic := models.LibraryItem{ID: 2, SchoolID: uintPtr(5), Visibility: models.VisibilityPublic}
	otherApprovedPublic := models.LibraryItem{ID: 3, SchoolID: uintPtr(6), Visibility: models.VisibilityPublic, IsApproved: true}
	otherPendingPublic := models.LibraryItem{ID: 4, SchoolID: uintPtr(6), Visibility: models.VisibilityPublic}
	otherPrivate := models.LibraryItem{ID: 5, SchoolID: uintPtr(6), Visibility: models.VisibilityPrivate, IsApproved: true}

	director := Actor{ID: 1, Role: RoleDirector, SchoolID: uintPtr(5)}
	require.True(t, CanViewLibraryItem(director, ownPrivate).Allowed)
	require.True(t, CanViewLibraryItem(director, ownPendingPublic).Allowed, "own pending uploads stay visible to the director")
	require.True(t, CanViewLibraryItem(director, otherApprovedPublic).Allowed)
	require.False(t, CanViewLibraryItem(director, otherPendingPublic).Allowed)
	require.False(t, CanViewLibraryItem(director, otherPrivate).Allowed)

	profesor := Actor{ID: 2, Role: RoleProfesor, SchoolID: uintPtr(5)}
	require.True(t, CanViewLibraryItem(profesor, ownPrivate).Allowed)
	require.False(t, CanViewLibraryItem(profesor, ownPendingPublic).Allowed)
	require.True(t, CanViewLibraryItem(profesor, otherApprovedPublic).Allowed)
	require.False(t, CanViewLibraryItem(profesor, otherPrivate).Allowed)

	require.False(t, CanViewLibraryItem(Actor{ID: 3, Role: RoleUser}, otherApprovedPublic).Allowed)
}

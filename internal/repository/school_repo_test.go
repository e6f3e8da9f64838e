package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/models"
)

func setupTestDB(t *testing.T, entities ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(entities...))
	return db
}

func uintPtr(v uint) *uint {
	return &v
}

func TestSchoolSoftDeleteBlockedByActiveUsers(t *testing.T) {
	db := setupTestDB(t, &models.School{}, &models.User{})
	repo := NewSchoolRepository(db)

	school := models.School{Name: "Colegio San Martin", Code: "CSM"}
	require.NoError(t, repo.Create(context.Background(), &school))

	director := models.User{Name: "Ana", Email: "ana@csm.edu", PasswordHash: "x", Role: "DIRECTOR", SchoolID: &school.ID}
	profesor := models.User{Name: "Luis", Email: "luis@csm.edu", PasswordHash: "x", Role: "PROFESOR", SchoolID: &school.ID}
	require.NoError(t, db.Create(&director).Error)
	require.NoError(t, db.Create(&profesor).Error)

	err := repo.SoftDelete(context.Background(), school.ID, 1, time.Now())
	var activeErr *ActiveUsersError
	require.ErrorAs(t, err, &activeErr)
	require.Equal(t, int64(2), activeErr.Count)

	var stored models.School
	require.NoError(t, db.First(&stored, school.ID).Error)
	require.Nil(t, stored.DeletedAt, "deletion must not proceed while users remain")

	// Soft-deleted accounts no longer count as active.
	now := time.Now()
	require.NoError(t, db.Model(&models.User{}).Where("school_id = ?", school.ID).
		Updates(map[string]interface{}{"deleted_at": now, "deleted_by": 1}).Error)

	require.NoError(t, repo.SoftDelete(context.Background(), school.ID, 1, now))
	require.NoError(t, db.First(&stored, school.ID).Error)
	require.NotNil(t, stored.DeletedAt)
	require.Equal(t, uint(1), *stored.DeletedBy)
}

func TestSchoolCountActiveUsers(t *testing.T) {
	db := setupTestDB(t, &models.School{}, &models.User{})
	repo := NewSchoolRepository(db)

	school := models.School{Name: "Liceo Norte", Code: "LN"}
	require.NoError(t, repo.Create(context.Background(), &school))

	count, err := repo.CountActiveUsers(context.Background(), school.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, db.Create(&models.User{Name: "P", Email: "p@ln.edu", PasswordHash: "x", Role: "PROFESOR", SchoolID: &school.ID}).Error)

	count, err = repo.CountActiveUsers(context.Background(), school.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestSchoolListScopedToOwnSchool(t *testing.T) {
	db := setupTestDB(t, &models.School{}, &models.User{})
	repo := NewSchoolRepository(db)

	a := models.School{Name: "Alpha", Code: "A"}
	b := models.School{Name: "Beta", Code: "B"}
	require.NoError(t, repo.Create(context.Background(), &a))
	require.NoError(t, repo.Create(context.Background(), &b))

	director := authz.Actor{ID: 1, Role: authz.RoleDirector, SchoolID: &a.ID}
	schools, total, err := repo.List(context.Background(), authz.SchoolScopeFor(director), SchoolFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Alpha", schools[0].Name)

	admin := authz.Actor{ID: 2, Role: authz.RoleAdmin}
	_, total, err = repo.List(context.Background(), authz.SchoolScopeFor(admin), SchoolFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}

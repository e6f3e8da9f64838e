package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/sima-go-api/internal/models"
)

func TestAuditLogListFilters(t *testing.T) {
	db := setupTestDB(t, &models.AuditLog{})
	repo := NewAuditLogRepository(db)

	entries := []models.AuditLog{
		{ActorID: 1, ActorRole: "ADMIN", Action: models.AuditActionCreated, EntityType: models.EntityCase, EntityID: uintPtr(10), EntityLabel: "c-10"},
		{ActorID: 1, ActorRole: "ADMIN", Action: models.AuditActionUpdated, EntityType: models.EntityCase, EntityID: uintPtr(10), EntityLabel: "c-10",
			Changes: datatypes.JSONMap{"priority": map[string]interface{}{"from": "LOW", "to": "HIGH"}}},
		{ActorID: 2, ActorRole: "DIRECTOR", Action: models.AuditActionCreated, EntityType: models.EntityLibraryItem, EntityID: uintPtr(3), EntityLabel: "Guide"},
	}
	for i := range entries {
		require.NoError(t, repo.Create(context.Background(), &entries[i]))
	}

	got, total, err := repo.List(context.Background(), AuditLogFilter{EntityType: models.EntityCase})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, got, 2)

	got, total, err = repo.List(context.Background(), AuditLogFilter{ActorID: uintPtr(2)})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, models.EntityLibraryItem, got[0].EntityType)

	got, total, err = repo.List(context.Background(), AuditLogFilter{Action: models.AuditActionUpdated})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Contains(t, got[0].Changes, "priority")
}

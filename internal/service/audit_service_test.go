package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/models"
	"github.com/noah-isme/sima-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type auditRepoStub struct {
	entries []models.AuditLog
	fail    bool
}

func (a *auditRepoStub) Create(ctx context.Context, entry *models.AuditLog) error {
	if a.fail {
		return errors.New("storage unavailable")
	}
	entry.ID = uint(len(a.entries) + 1)
	a.entries = append(a.entries, *entry)
	return nil
}

func (a *auditRepoStub) List(ctx context.Context, filter repository.AuditLogFilter) ([]models.AuditLog, int64, error) {
	return a.entries, int64(len(a.entries)), nil
}

// recordingAudit captures entries handed to the recorder so tests can assert
// on what the mutation produced.
type recordingAudit struct {
	entries []AuditEntry
}

func (r *recordingAudit) Record(ctx context.Context, entry AuditEntry) {
	r.entries = append(r.entries, entry)
}

func TestComputeChangesMinimalDiff(t *testing.T) {
	old := map[string]interface{}{"title": "Before", "status": "OPEN", "priority": "LOW"}
	updated := map[string]interface{}{"title": "After", "status": "OPEN", "priority": "HIGH"}

	changes := ComputeChanges(old, updated)

	require.Len(t, changes, 2)
	require.Contains(t, changes, "title")
	require.Contains(t, changes, "priority")
	require.NotContains(t, changes, "status")

	title := changes["title"].(map[string]interface{})
	require.Equal(t, "Before", title["from"])
	require.Equal(t, "After", title["to"])
}

func TestComputeChangesEmptyForIdenticalSnapshots(t *testing.T) {
	snapshot := map[string]interface{}{"title": "Same", "status": "OPEN"}
	require.Empty(t, ComputeChanges(snapshot, map[string]interface{}{"title": "Same", "status": "OPEN"}))
}

func TestAuditRecordSkipsEmptyUpdate(t *testing.T) {
	repo := &auditRepoStub{}
	svc := NewAuditService(repo, testLogger())

	svc.Record(context.Background(), AuditEntry{
		Actor:      authz.Actor{ID: 1, Role: authz.RoleAdmin},
		Action:     models.AuditActionUpdated,
		EntityType: models.EntityCase,
	})

	require.Empty(t, repo.entries)
}

func TestAuditRecordPersistsEntry(t *testing.T) {
	repo := &auditRepoStub{}
	svc := NewAuditService(repo, testLogger())

	id := uint(7)
	svc.Record(context.Background(), AuditEntry{
		Actor:       authz.Actor{ID: 3, Role: authz.RoleSuperAdmin},
		Action:      models.AuditActionDeleted,
		EntityType:  models.EntitySchool,
		EntityID:    &id,
		EntityLabel: "North Campus",
		Network:     NetworkMeta{IPAddress: "10.0.0.1", UserAgent: "cli"},
	})

	require.Len(t, repo.entries, 1)
	entry := repo.entries[0]
	require.Equal(t, uint(3), entry.ActorID)
	require.Equal(t, "SUPER_ADMIN", entry.ActorRole)
	require.Equal(t, models.AuditActionDeleted, entry.Action)
	require.Equal(t, "North Campus", entry.EntityLabel)
	require.Equal(t, "10.0.0.1", entry.IPAddress)
}

func TestAuditRecordSurvivesStorageFailure(t *testing.T) {
	repo := &auditRepoStub{fail: true}
	svc := NewAuditService(repo, testLogger())

	require.NotPanics(t, func() {
		svc.Record(context.Background(), AuditEntry{
			Actor:      authz.Actor{ID: 1, Role: authz.RoleAdmin},
			Action:     models.AuditActionCreated,
			EntityType: models.EntityCase,
		})
	})
}

func TestAuditRecordMasksSensitiveMetadata(t *testing.T) {
	repo := &auditRepoStub{}
	svc := NewAuditService(repo, testLogger())

	svc.Record(context.Background(), AuditEntry{
		Actor:      authz.Actor{ID: 1, Role: authz.RoleAdmin},
		Action:     models.AuditActionCreated,
		EntityType: models.EntityUser,
		Metadata: map[string]interface{}{
			"role":          "PROFESOR",
			"temp_password": "hunter2",
		},
	})

	require.Len(t, repo.entries, 1)
	metadata := repo.entries[0].Metadata
	require.Equal(t, "PROFESOR", metadata["role"])
	require.Equal(t, "***", metadata["temp_password"])
}

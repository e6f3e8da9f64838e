package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/dto"
	"github.com/noah-isme/sima-go-api/internal/models"
	"github.com/noah-isme/sima-go-api/internal/repository"
)

type libraryRepoStub struct {
	items  map[uint]*models.LibraryItem
	nextID uint
	lists  int
}

func newLibraryRepoStub() *libraryRepoStub {
	return &libraryRepoStub{items: map[uint]*models.LibraryItem{}, nextID: 1}
}

func (r *libraryRepoStub) Create(ctx context.Context, item *models.LibraryItem) error {
	item.ID = r.nextID
	r.nextID++
	stored := *item
	r.items[item.ID] = &stored
	return nil
}

func (r *libraryRepoStub) FindByID(ctx context.Context, id uint) (*models.LibraryItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *item
	return &found, nil
}

func (r *libraryRepoStub) Update(ctx context.Context, item *models.LibraryItem) error {
	stored := *item
	r.items[item.ID] = &stored
	return nil
}

func (r *libraryRepoStub) SoftDelete(ctx context.Context, id uint, deletedBy uint, at time.Time) error {
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.DeletedAt = &at
	item.DeletedBy = &deletedBy
	return nil
}

func (r *libraryRepoStub) List(ctx context.Context, scope authz.Scope, filter repository.LibraryFilter) ([]models.LibraryItem, int64, error) {
	r.lists++
	items := make([]models.LibraryItem, 0, len(r.items))
	for _, item := range r.items {
		if item.DeletedAt == nil {
			items = append(items, *item)
		}
	}
	return items, int64(len(items)), nil
}

func (r *libraryRepoStub) ListPending(ctx context.Context, filter repository.LibraryFilter) ([]models.LibraryItem, int64, error) {
	var items []models.LibraryItem
	for _, item := range r.items {
		if item.DeletedAt == nil && item.Visibility == models.VisibilityPublic && !item.IsApproved {
			items = append(items, *item)
		}
	}
	return items, int64(len(items)), nil
}

func newLibraryService(repo repository.LibraryRepository, audit AuditRecorder, cache *redis.Client) LibraryService {
	return NewLibraryService(repo, audit, cache, time.Minute, nil, "", validator.New(validator.WithRequiredStructEnabled()), testLogger())
}

func TestLibraryDirectorPublicUploadAwaitsApproval(t *testing.T) {
	repo := newLibraryRepoStub()
	audit := &recordingAudit{}
	svc := newLibraryService(repo, audit, nil)

	school := uint(3)
	director := authz.Actor{ID: 7, Role: authz.RoleDirector, SchoolID: &school}
	admin := authz.Actor{ID: 1, Role: authz.RoleAdmin}

	created, err := svc.Create(context.Background(), director, dto.LibraryCreateRequest{
		Title:      "Lesson plans",
		FileURL:    "https://files.example.com/plans.pdf",
		Visibility: models.VisibilityPublic,
	}, NetworkMeta{})
	require.NoError(t, err)
	require.False(t, created.IsApproved)
	require.Nil(t, created.ApprovedBy)
	require.Equal(t, school, *created.SchoolID)

	pending, err := svc.ListPending(context.Background(), admin, dto.LibraryListRequest{})
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)

	approved, err := svc.Approve(context.Background(), admin, created.ID, NetworkMeta{})
	require.NoError(t, err)
	require.True(t, approved.IsApproved)
	require.Equal(t, admin.ID, *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	// Approving twice is a precondition failure, not a silent no-op.
	_, err = svc.Approve(context.Background(), admin, created.ID, NetworkMeta{})
	require.True(t, IsPreconditionFailed(err))

	var statusEntries int
	for _, entry := range audit.entries {
		if entry.Action == models.AuditActionStatusChange {
			statusEntries++
		}
	}
	require.Equal(t, 1, statusEntries)
}

func TestLibraryAdminUploadAutoApproved(t *testing.T) {
	repo := newLibraryRepoStub()
	svc := newLibraryService(repo, &recordingAudit{}, nil)

	admin := authz.Actor{ID: 1, Role: authz.RoleSuperAdmin}
	created, err := svc.Create(context.Background(), admin, dto.LibraryCreateRequest{
		Title:      "District policy",
		FileURL:    "https://files.example.com/policy.pdf",
		Visibility: models.VisibilityPublic,
	}, NetworkMeta{})
	require.NoError(t, err)
	require.True(t, created.IsApproved)
	require.Equal(t, admin.ID, *created.ApprovedBy)
	require.Nil(t, created.SchoolID)
}

func TestLibraryProfessorCannotUpload(t *testing.T) {
	svc := newLibraryService(newLibraryRepoStub(), &recordingAudit{}, nil)

	school := uint(3)
	prof := authz.Actor{ID: 9, Role: authz.RoleProfesor, SchoolID: &school}
	_, err := svc.Create(context.Background(), prof, dto.LibraryCreateRequest{
		Title:      "Unauthorized",
		FileURL:    "https://files.example.com/x.pdf",
		Visibility: models.VisibilityPrivate,
	}, NetworkMeta{})
	require.True(t, IsPermissionDenied(err))
}

func TestLibraryVisibilityRoundTripRequiresReapproval(t *testing.T) {
	repo := newLibraryRepoStub()
	audit := &recordingAudit{}
	svc := newLibraryService(repo, audit, nil)

	school := uint(3)
	director := authz.Actor{ID: 7, Role: authz.RoleDirector, SchoolID: &school}
	admin := authz.Actor{ID: 1, Role: authz.RoleAdmin}

	created, err := svc.Create(context.Background(), director, dto.LibraryCreateRequest{
		Title:      "Worksheets",
		FileURL:    "https://files.example.com/ws.pdf",
		Visibility: models.VisibilityPublic,
	}, NetworkMeta{})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), admin, created.ID, NetworkMeta{})
	require.NoError(t, err)

	private := models.VisibilityPrivate
	_, err = svc.Update(context.Background(), director, created.ID, dto.LibraryUpdateRequest{Visibility: &private}, NetworkMeta{})
	require.NoError(t, err)

	public := models.VisibilityPublic
	back, err := svc.Update(context.Background(), director, created.ID, dto.LibraryUpdateRequest{Visibility: &public}, NetworkMeta{})
	require.NoError(t, err)
	require.False(t, back.IsApproved)
	require.Nil(t, back.ApprovedBy)
}

func TestLibraryListCachingAndInvalidation(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	repo := newLibraryRepoStub()
	svc := newLibraryService(repo, &recordingAudit{}, redisClient)

	admin := authz.Actor{ID: 1, Role: authz.RoleAdmin}

	_, err = svc.Create(context.Background(), admin, dto.LibraryCreateRequest{
		Title:      "Cached item",
		FileURL:    "https://files.example.com/c.pdf",
		Visibility: models.VisibilityPrivate,
	}, NetworkMeta{})
	require.NoError(t, err)

	first, err := svc.List(context.Background(), admin, dto.LibraryListRequest{})
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Len(t, first.Items, 1)

	second, err := svc.List(context.Background(), admin, dto.LibraryListRequest{})
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, 1, repo.lists)

	// A mutation bumps the version key; the next list misses the cache.
	_, err = svc.Create(context.Background(), admin, dto.LibraryCreateRequest{
		Title:      "Invalidating item",
		FileURL:    "https://files.example.com/i.pdf",
		Visibility: models.VisibilityPrivate,
	}, NetworkMeta{})
	require.NoError(t, err)

	third, err := svc.List(context.Background(), admin, dto.LibraryListRequest{})
	require.NoError(t, err)
	require.False(t, third.CacheHit)
	require.Len(t, third.Items, 2)
	require.Equal(t, 2, repo.lists)
}

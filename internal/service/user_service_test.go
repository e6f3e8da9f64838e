package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/dto"
	"github.com/noah-isme/sima-go-api/internal/models"
	"github.com/noah-isme/sima-go-api/internal/repository"
)

type userRepoStub struct {
	users  map[uint]*models.User
	nextID uint
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: map[uint]*models.User{}, nextID: 1}
}

func (r *userRepoStub) Create(ctx context.Context, user *models.User) error {
	user.ID = r.nextID
	r.nextID++
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *userRepoStub) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *user
	return &found, nil
}

func (r *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			found := *user
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *userRepoStub) Update(ctx context.Context, user *models.User) error {
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *userRepoStub) SoftDelete(ctx context.Context, id uint, deletedBy uint, at time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.DeletedAt = &at
	user.DeletedBy = &deletedBy
	return nil
}

func (r *userRepoStub) List(ctx context.Context, scope authz.Scope, filter repository.UserFilter) ([]models.User, int64, error) {
	users := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, *user)
	}
	return users, int64(len(users)), nil
}

func (r *userRepoStub) seed(user models.User) models.User {
	user.ID = r.nextID
	r.nextID++
	stored := user
	r.users[user.ID] = &stored
	return user
}

func newUserService(repo repository.UserRepository, audit AuditRecorder) UserService {
	return NewUserService(repo, audit, validator.New(validator.WithRequiredStructEnabled()), testLogger())
}

func TestUserCreateHashesPasswordAndNormalizesEmail(t *testing.T) {
	repo := newUserRepoStub()
	audit := &recordingAudit{}
	svc := newUserService(repo, audit)

	actor := authz.Actor{ID: 1, Role: authz.RoleSuperAdmin}
	school := uint(2)

	resp, err := svc.Create(context.Background(), actor, dto.UserCreateRequest{
		Name:     "Ana Pop",
		Email:    "Ana.Pop@Example.COM",
		Password: "s3cret-pass",
		Role:     "PROFESOR",
		SchoolID: &school,
	}, NetworkMeta{})
	require.NoError(t, err)
	require.Equal(t, "ana.pop@example.com", resp.Email)

	stored := repo.users[resp.ID]
	require.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))

	require.Len(t, audit.entries, 1)
	require.Equal(t, models.AuditActionCreated, audit.entries[0].Action)
	require.Equal(t, models.EntityUser, audit.entries[0].EntityType)
}

func TestUserCreateDirectorScopedToOwnSchool(t *testing.T) {
	repo := newUserRepoStub()
	svc := newUserService(repo, &recordingAudit{})

	own := uint(2)
	other := uint(9)
	director := authz.Actor{ID: 4, Role: authz.RoleDirector, SchoolID: &own}

	// Without a school in the request the director's own school applies.
	resp, err := svc.Create(context.Background(), director, dto.UserCreateRequest{
		Name:     "New Profesor",
		Email:    "prof@example.com",
		Password: "s3cret-pass",
		Role:     "PROFESOR",
	}, NetworkMeta{})
	require.NoError(t, err)
	require.NotNil(t, resp.SchoolID)
	require.Equal(t, own, *resp.SchoolID)

	// Another school is out of reach.
	_, err = svc.Create(context.Background(), director, dto.UserCreateRequest{
		Name:     "Foreign Profesor",
		Email:    "foreign@example.com",
		Password: "s3cret-pass",
		Role:     "PROFESOR",
		SchoolID: &other,
	}, NetworkMeta{})
	require.True(t, IsPermissionDenied(err))

	// So is any role above PROFESOR.
	_, err = svc.Create(context.Background(), director, dto.UserCreateRequest{
		Name:     "Peer Director",
		Email:    "peer@example.com",
		Password: "s3cret-pass",
		Role:     "DIRECTOR",
		SchoolID: &own,
	}, NetworkMeta{})
	require.True(t, IsPermissionDenied(err))
}

func TestUserCreateRejectsDuplicateEmail(t *testing.T) {
	repo := newUserRepoStub()
	repo.seed(models.User{Name: "Existing", Email: "taken@example.com", Role: "USER", PasswordHash: "x"})
	svc := newUserService(repo, &recordingAudit{})

	_, err := svc.Create(context.Background(), authz.Actor{ID: 1, Role: authz.RoleSuperAdmin}, dto.UserCreateRequest{
		Name:     "Someone Else",
		Email:    "Taken@example.com",
		Password: "s3cret-pass",
		Role:     "USER",
	}, NetworkMeta{})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestChangeRoleSuperAdminOnly(t *testing.T) {
	repo := newUserRepoStub()
	audit := &recordingAudit{}
	svc := newUserService(repo, audit)

	school := uint(2)
	target := repo.seed(models.User{Name: "Target", Email: "t@example.com", Role: "PROFESOR", SchoolID: &school, PasswordHash: "x"})

	admin := authz.Actor{ID: 50, Role: authz.RoleAdmin}
	_, err := svc.ChangeRole(context.Background(), admin, target.ID, dto.UserRoleChangeRequest{Role: "DIRECTOR", SchoolID: &school}, NetworkMeta{})
	require.True(t, IsPermissionDenied(err))

	superAdmin := authz.Actor{ID: 51, Role: authz.RoleSuperAdmin}
	resp, err := svc.ChangeRole(context.Background(), superAdmin, target.ID, dto.UserRoleChangeRequest{Role: "DIRECTOR", SchoolID: &school}, NetworkMeta{})
	require.NoError(t, err)
	require.Equal(t, "DIRECTOR", resp.Role)

	require.Len(t, audit.entries, 1)
	require.Contains(t, audit.entries[0].Changes, "role")
}

func TestChangeRoleNeverOnSelf(t *testing.T) {
	repo := newUserRepoStub()
	svc := newUserService(repo, &recordingAudit{})

	self := repo.seed(models.User{Name: "Root", Email: "root@example.com", Role: "SUPER_ADMIN", PasswordHash: "x"})
	actor := authz.Actor{ID: self.ID, Role: authz.RoleSuperAdmin}

	_, err := svc.ChangeRole(context.Background(), actor, self.ID, dto.UserRoleChangeRequest{Role: "USER"}, NetworkMeta{})
	require.True(t, IsPermissionDenied(err))
}

func TestChangeRoleClearsSchoolForSystemRoles(t *testing.T) {
	repo := newUserRepoStub()
	svc := newUserService(repo, &recordingAudit{})

	school := uint(2)
	target := repo.seed(models.User{Name: "Promoted", Email: "p@example.com", Role: "DIRECTOR", SchoolID: &school, PasswordHash: "x"})

	resp, err := svc.ChangeRole(context.Background(), authz.Actor{ID: 99, Role: authz.RoleSuperAdmin}, target.ID, dto.UserRoleChangeRequest{Role: "ADMIN"}, NetworkMeta{})
	require.NoError(t, err)
	require.Equal(t, "ADMIN", resp.Role)
	require.Nil(t, resp.SchoolID)
}

func TestUserDeleteRules(t *testing.T) {
	repo := newUserRepoStub()
	audit := &recordingAudit{}
	svc := newUserService(repo, audit)

	otherAdmin := repo.seed(models.User{Name: "Other Admin", Email: "oa@example.com", Role: "ADMIN", PasswordHash: "x"})
	school := uint(2)
	prof := repo.seed(models.User{Name: "Prof", Email: "prof2@example.com", Role: "PROFESOR", SchoolID: &school, PasswordHash: "x"})

	admin := authz.Actor{ID: 200, Role: authz.RoleAdmin}

	// ADMIN may not remove administrator accounts.
	err := svc.Delete(context.Background(), admin, otherAdmin.ID, NetworkMeta{})
	require.True(t, IsPermissionDenied(err))

	// Self-deletion is always refused.
	self := repo.seed(models.User{Name: "Me", Email: "me@example.com", Role: "SUPER_ADMIN", PasswordHash: "x"})
	err = svc.Delete(context.Background(), authz.Actor{ID: self.ID, Role: authz.RoleSuperAdmin}, self.ID, NetworkMeta{})
	require.True(t, IsPermissionDenied(err))

	// A scoped professor removal works and is audited.
	err = svc.Delete(context.Background(), admin, prof.ID, NetworkMeta{})
	require.NoError(t, err)
	require.NotNil(t, repo.users[prof.ID].DeletedAt)
	require.Equal(t, admin.ID, *repo.users[prof.ID].DeletedBy)
	require.Len(t, audit.entries, 1)
	require.Equal(t, models.AuditActionDeleted, audit.entries[0].Action)
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/dto"
	"github.com/noah-isme/sima-go-api/internal/models"
	"github.com/noah-isme/sima-go-api/internal/repository"
)

// ErrEmailTaken reports a duplicate email on account creation.
var ErrEmailTaken = errors.New("email is already registered")

// UserService exposes account management. Role assignment and deletion are
// governed by the role hierarchy; directors operate inside their school only.
type UserService interface {
	Create(ctx context.Context, actor authz.Actor, req dto.UserCreateRequest, net NetworkMeta) (dto.UserResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.UserResponse, error)
	List(ctx context.Context, actor authz.Actor, req dto.UserListRequest) (dto.UserListResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, req dto.UserUpdateRequest, net NetworkMeta) (dto.UserResponse, error)
	ChangeRole(ctx context.Context, actor authz.Actor, id uint, req dto.UserRoleChangeRequest, net NetworkMeta) (dto.UserResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint, net NetworkMeta) error
}

type userService struct {
	repo      repository.UserRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewUserService constructs the user service.
func NewUserService(repo repository.UserRepository, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) UserService {
	return &userService{
		repo:      repo,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/sima-go-api/internal/service/user"),
	}
}

func (s *userService) Create(ctx context.Context, actor authz.Actor, req dto.UserCreateRequest, net NetworkMeta) (dto.UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "user.create")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	newRole, ok := authz.ParseRole(req.Role)
	if !ok {
		return dto.UserResponse{}, &PermissionError{Reason: "unknown role"}
	}

	// Directors create professors into their own school without naming it.
	schoolID := req.SchoolID
	if actor.Role == authz.RoleDirector && schoolID == nil {
		schoolID = actor.SchoolID
	}

	if err := evaluate(models.EntityUser, "create", authz.CanCreateUser(actor, newRole, schoolID)); err != nil {
		return dto.UserResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return dto.UserResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.UserResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.UserResponse{}, err
	}

	// System-wide roles never carry a school binding.
	if newRole.IsAdministrator() || newRole == authz.RoleUser {
		schoolID = nil
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         string(newRole),
		SchoolID:     schoolID,
	}

	if err := s.repo.Create(ctx, &user); err != nil {
		span.RecordError(err)
		return dto.UserResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionCreated,
		EntityType:  models.EntityUser,
		EntityID:    &user.ID,
		EntityLabel: user.Email,
		Metadata:    map[string]interface{}{"role": user.Role},
		Network:     net,
	})

	return dto.NewUserResponse(user), nil
}

func (s *userService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.UserResponse{}, translateNotFound(err)
	}
	if user.Deleted() && !actor.Role.IsAdministrator() {
		return dto.UserResponse{}, ErrNotFound
	}

	if err := evaluate(models.EntityUser, "view", authz.CanViewUser(actor, *user)); err != nil {
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(*user), nil
}

func (s *userService) List(ctx context.Context, actor authz.Actor, req dto.UserListRequest) (dto.UserListResponse, error) {
	filter := repository.UserFilter{
		Page:     maxInt(req.Page, 1),
		PageSize: clampPageSize(req.PageSize),
		Role:     strings.ToUpper(strings.TrimSpace(req.Role)),
		Search:   strings.TrimSpace(req.Search),
	}
	if actor.Role.IsAdministrator() {
		filter.SchoolID = req.SchoolID
	}

	users, total, err := s.repo.List(ctx, authz.UserScopeFor(actor), filter)
	if err != nil {
		return dto.UserListResponse{}, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.NewUserResponse(user))
	}

	return dto.UserListResponse{
		Items:      responses,
		Pagination: paginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *userService) Update(ctx context.Context, actor authz.Actor, id uint, req dto.UserUpdateRequest, net NetworkMeta) (dto.UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "user.update")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.UserResponse{}, translateNotFound(err)
	}
	if user.Deleted() {
		return dto.UserResponse{}, &PreconditionError{Reason: "account already deleted"}
	}

	if err := evaluate(models.EntityUser, "update", authz.CanUpdateUser(actor, *user)); err != nil {
		return dto.UserResponse{}, err
	}

	before := snapshotUser(*user)

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}

	changes := ComputeChanges(before, snapshotUser(*user))
	if len(changes) == 0 {
		return dto.NewUserResponse(*user), nil
	}

	if err := s.repo.Update(ctx, user); err != nil {
		span.RecordError(err)
		return dto.UserResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionUpdated,
		EntityType:  models.EntityUser,
		EntityID:    &user.ID,
		EntityLabel: user.Email,
		Changes:     changes,
		Network:     net,
	})

	return dto.NewUserResponse(*user), nil
}

func (s *userService) ChangeRole(ctx context.Context, actor authz.Actor, id uint, req dto.UserRoleChangeRequest, net NetworkMeta) (dto.UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "user.change_role")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.UserResponse{}, err
	}

	newRole, ok := authz.ParseRole(req.Role)
	if !ok {
		return dto.UserResponse{}, &PermissionError{Reason: "unknown role"}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.UserResponse{}, translateNotFound(err)
	}
	if user.Deleted() {
		return dto.UserResponse{}, &PreconditionError{Reason: "account already deleted"}
	}

	if err := evaluate(models.EntityUser, "change_role", authz.CanChangeRole(actor, *user)); err != nil {
		return dto.UserResponse{}, err
	}

	if (newRole == authz.RoleDirector || newRole == authz.RoleProfesor) && req.SchoolID == nil && user.SchoolID == nil {
		return dto.UserResponse{}, &PermissionError{Reason: authz.ReasonSchoolRequired}
	}

	before := snapshotUser(*user)

	user.Role = string(newRole)
	if newRole.IsAdministrator() || newRole == authz.RoleUser {
		user.SchoolID = nil
	} else if req.SchoolID != nil {
		user.SchoolID = req.SchoolID
	}

	changes := ComputeChanges(before, snapshotUser(*user))
	if len(changes) == 0 {
		return dto.NewUserResponse(*user), nil
	}

	if err := s.repo.Update(ctx, user); err != nil {
		span.RecordError(err)
		return dto.UserResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionUpdated,
		EntityType:  models.EntityUser,
		EntityID:    &user.ID,
		EntityLabel: user.Email,
		Changes:     changes,
		Network:     net,
	})

	return dto.NewUserResponse(*user), nil
}

func (s *userService) Delete(ctx context.Context, actor authz.Actor, id uint, net NetworkMeta) error {
	ctx, span := s.tracer.Start(ctx, "user.delete")
	defer span.End()

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translateNotFound(err)
	}
	if user.Deleted() {
		return &PreconditionError{Reason: "account already deleted"}
	}

	if err := evaluate(models.EntityUser, "delete", authz.CanDeleteUser(actor, *user)); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, user.ID, actor.ID, time.Now().UTC()); err != nil {
		span.RecordError(err)
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionDeleted,
		EntityType:  models.EntityUser,
		EntityID:    &user.ID,
		EntityLabel: user.Email,
		Metadata:    map[string]interface{}{"role": user.Role},
		Network:     net,
	})

	return nil
}

func snapshotUser(user models.User) map[string]interface{} {
	return map[string]interface{}{
		"name":      user.Name,
		"email":     user.Email,
		"role":      user.Role,
		"school_id": user.SchoolID,
	}
}

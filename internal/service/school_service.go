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

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/dto"
	"github.com/noah-isme/sima-go-api/internal/models"
	"github.com/noah-isme/sima-go-api/internal/repository"
)

// SchoolService exposes school management. Only administrators may create,
// update or delete schools; deletion additionally requires that no active
// account is still assigned to the school.
type SchoolService interface {
	Create(ctx context.Context, actor authz.Actor, req dto.SchoolCreateRequest, net NetworkMeta) (dto.SchoolResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.SchoolResponse, error)
	List(ctx context.Context, actor authz.Actor, req dto.SchoolListRequest) (dto.SchoolListResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, req dto.SchoolUpdateRequest, net NetworkMeta) (dto.SchoolResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint, net NetworkMeta) error
}

type schoolService struct {
	repo      repository.SchoolRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewSchoolService constructs the school service.
func NewSchoolService(repo repository.SchoolRepository, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) SchoolService {
	return &schoolService{
		repo:      repo,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "school_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/sima-go-api/internal/service/school"),
	}
}

func (s *schoolService) Create(ctx context.Context, actor authz.Actor, req dto.SchoolCreateRequest, net NetworkMeta) (dto.SchoolResponse, error) {
	ctx, span := s.tracer.Start(ctx, "school.create")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.SchoolResponse{}, err
	}

	if err := evaluate(models.EntitySchool, "create", authz.CanManageSchool(actor)); err != nil {
		return dto.SchoolResponse{}, err
	}

	school := models.School{
		Name:    strings.TrimSpace(req.Name),
		Code:    strings.ToUpper(strings.TrimSpace(req.Code)),
		City:    strings.TrimSpace(req.City),
		Address: strings.TrimSpace(req.Address),
	}

	if err := s.repo.Create(ctx, &school); err != nil {
		span.RecordError(err)
		return dto.SchoolResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionCreated,
		EntityType:  models.EntitySchool,
		EntityID:    &school.ID,
		EntityLabel: school.Name,
		Metadata:    map[string]interface{}{"code": school.Code},
		Network:     net,
	})

	return dto.NewSchoolResponse(school), nil
}

func (s *schoolService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.SchoolResponse, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.SchoolResponse{}, translateNotFound(err)
	}
	if school.Deleted() && !actor.Role.IsAdministrator() {
		return dto.SchoolResponse{}, ErrNotFound
	}

	if err := evaluate(models.EntitySchool, "view", authz.CanViewSchool(actor, *school)); err != nil {
		return dto.SchoolResponse{}, err
	}

	return dto.NewSchoolResponse(*school), nil
}

func (s *schoolService) List(ctx context.Context, actor authz.Actor, req dto.SchoolListRequest) (dto.SchoolListResponse, error) {
	filter := repository.SchoolFilter{
		Page:     maxInt(req.Page, 1),
		PageSize: clampPageSize(req.PageSize),
		Search:   strings.TrimSpace(req.Search),
	}

	schools, total, err := s.repo.List(ctx, authz.SchoolScopeFor(actor), filter)
	if err != nil {
		return dto.SchoolListResponse{}, err
	}

	responses := make([]dto.SchoolResponse, 0, len(schools))
	for _, school := range schools {
		responses = append(responses, dto.NewSchoolResponse(school))
	}

	return dto.SchoolListResponse{
		Items:      responses,
		Pagination: paginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *schoolService) Update(ctx context.Context, actor authz.Actor, id uint, req dto.SchoolUpdateRequest, net NetworkMeta) (dto.SchoolResponse, error) {
	ctx, span := s.tracer.Start(ctx, "school.update")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.SchoolResponse{}, err
	}

	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.SchoolResponse{}, translateNotFound(err)
	}
	if school.Deleted() {
		return dto.SchoolResponse{}, &PreconditionError{Reason: "school already deleted"}
	}

	if err := evaluate(models.EntitySchool, "update", authz.CanManageSchool(actor)); err != nil {
		return dto.SchoolResponse{}, err
	}

	before := snapshotSchool(*school)

	if req.Name != nil {
		school.Name = strings.TrimSpace(*req.Name)
	}
	if req.City != nil {
		school.City = strings.TrimSpace(*req.City)
	}
	if req.Address != nil {
		school.Address = strings.TrimSpace(*req.Address)
	}

	changes := ComputeChanges(before, snapshotSchool(*school))
	if len(changes) == 0 {
		return dto.NewSchoolResponse(*school), nil
	}

	if err := s.repo.Update(ctx, school); err != nil {
		span.RecordError(err)
		return dto.SchoolResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionUpdated,
		EntityType:  models.EntitySchool,
		EntityID:    &school.ID,
		EntityLabel: school.Name,
		Changes:     changes,
		Network:     net,
	})

	return dto.NewSchoolResponse(*school), nil
}

func (s *schoolService) Delete(ctx context.Context, actor authz.Actor, id uint, net NetworkMeta) error {
	ctx, span := s.tracer.Start(ctx, "school.delete")
	defer span.End()

	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translateNotFound(err)
	}
	if school.Deleted() {
		return &PreconditionError{Reason: "school already deleted"}
	}

	if err := evaluate(models.EntitySchool, "delete", authz.CanDeleteSchool(actor)); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, school.ID, actor.ID, time.Now().UTC()); err != nil {
		var active *repository.ActiveUsersError
		if errors.As(err, &active) {
			return &PreconditionError{Reason: active.Error()}
		}
		span.RecordError(err)
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionDeleted,
		EntityType:  models.EntitySchool,
		EntityID:    &school.ID,
		EntityLabel: school.Name,
		Network:     net,
	})

	return nil
}

func snapshotSchool(school models.School) map[string]interface{} {
	return map[string]interface{}{
		"name":    school.Name,
		"city":    school.City,
		"address": school.Address,
	}
}

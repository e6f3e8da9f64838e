package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/dto"
	"github.com/noah-isme/sima-go-api/internal/models"
	"github.com/noah-isme/sima-go-api/internal/repository"
)

// CaseService exposes the guarded case-management surface. Every mutation
// consults the permission evaluator on already-fetched snapshots and hands
// the before/after state to the audit recorder.
type CaseService interface {
	Create(ctx context.Context, actor authz.Actor, req dto.CaseCreateRequest, net NetworkMeta) (dto.CaseResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.CaseResponse, error)
	List(ctx context.Context, actor authz.Actor, req dto.CaseListRequest) (dto.CaseListResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, req dto.CaseUpdateRequest, net NetworkMeta) (dto.CaseResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint, net NetworkMeta) error
}

type caseService struct {
	repo      repository.CaseRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	policy    *bluemonday.Policy
	tracer    trace.Tracer
}

// NewCaseService constructs the case service.
func NewCaseService(repo repository.CaseRepository, audit AuditRecorder, validate *validator.Validate, logger zerolog.Logger) CaseService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("p", "strong", "em", "ul", "ol", "li", "br")
	return &caseService{
		repo:      repo,
		audit:     audit,
		validator: validate,
		logger:    logger.With().Str("component", "case_service").Logger(),
		policy:    policy,
		tracer:    otel.Tracer("github.com/noah-isme/sima-go-api/internal/service/case"),
	}
}

func (s *caseService) Create(ctx context.Context, actor authz.Actor, req dto.CaseCreateRequest, net NetworkMeta) (dto.CaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "case.create")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.CaseResponse{}, err
	}

	// Scoped roles always create into their own school; the request body's
	// school is honoured only for administrators.
	var schoolID uint
	if actor.Role.IsAdministrator() {
		if req.SchoolID != nil {
			schoolID = *req.SchoolID
		}
	} else if actor.SchoolID != nil {
		schoolID = *actor.SchoolID
	}

	if err := evaluate(models.EntityCase, "create", authz.CanCreateCase(actor, schoolID)); err != nil {
		return dto.CaseResponse{}, err
	}

	priority := req.Priority
	if priority == "" {
		priority = models.CasePriorityMedium
	}

	record := models.CaseRecord{
		ReferenceID: uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: s.policy.Sanitize(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Priority:    priority,
		Status:      models.CaseStatusOpen,
		SchoolID:    schoolID,
		CreatedBy:   actor.ID,
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		span.RecordError(err)
		return dto.CaseResponse{}, err
	}

	span.SetAttributes(attribute.String("case.reference_id", record.ReferenceID))

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionCreated,
		EntityType:  models.EntityCase,
		EntityID:    &record.ID,
		EntityLabel: record.Title,
		Metadata:    map[string]interface{}{"reference_id": record.ReferenceID, "school_id": record.SchoolID},
		Network:     net,
	})

	return dto.NewCaseResponse(record), nil
}

func (s *caseService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.CaseResponse, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.CaseResponse{}, translateNotFound(err)
	}

	// Soft-deleted cases stay invisible to non-privileged reads.
	if record.Deleted() && !actor.Role.IsAdministrator() {
		return dto.CaseResponse{}, ErrNotFound
	}

	if err := evaluate(models.EntityCase, "view", authz.CanViewCase(actor, *record)); err != nil {
		return dto.CaseResponse{}, err
	}

	return dto.NewCaseResponse(*record), nil
}

func (s *caseService) List(ctx context.Context, actor authz.Actor, req dto.CaseListRequest) (dto.CaseListResponse, error) {
	filter := repository.CaseFilter{
		Page:     maxInt(req.Page, 1),
		PageSize: clampPageSize(req.PageSize),
		Status:   strings.TrimSpace(req.Status),
		Priority: strings.TrimSpace(req.Priority),
		Search:   strings.TrimSpace(req.Search),
	}
	// Explicit school narrowing is an administrator convenience; scoped
	// roles are already pinned by the visibility predicate.
	if actor.Role.IsAdministrator() {
		filter.SchoolID = req.SchoolID
	}

	records, total, err := s.repo.List(ctx, authz.CaseScopeFor(actor), filter)
	if err != nil {
		return dto.CaseListResponse{}, err
	}

	responses := make([]dto.CaseResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, dto.NewCaseResponse(record))
	}

	return dto.CaseListResponse{
		Items:      responses,
		Pagination: paginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *caseService) Update(ctx context.Context, actor authz.Actor, id uint, req dto.CaseUpdateRequest, net NetworkMeta) (dto.CaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "case.update")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.CaseResponse{}, err
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.CaseResponse{}, translateNotFound(err)
	}
	if record.Deleted() {
		return dto.CaseResponse{}, &PreconditionError{Reason: "case already deleted"}
	}

	if err := evaluate(models.EntityCase, "update", authz.CanUpdateCase(actor, *record)); err != nil {
		return dto.CaseResponse{}, err
	}

	before := snapshotCase(*record)

	if req.Title != nil {
		record.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		record.Description = s.policy.Sanitize(*req.Description)
	}
	if req.Category != nil {
		record.Category = strings.TrimSpace(*req.Category)
	}
	if req.Priority != nil {
		record.Priority = *req.Priority
	}
	if req.Status != nil {
		record.Status = *req.Status
	}

	changes := ComputeChanges(before, snapshotCase(*record))
	if len(changes) == 0 {
		// No-op patch: nothing to persist, nothing to audit.
		return dto.NewCaseResponse(*record), nil
	}

	if err := s.repo.Update(ctx, record); err != nil {
		span.RecordError(err)
		return dto.CaseResponse{}, err
	}

	// Status transitions get their own, more specific tag. When other
	// fields changed in the same request a generic UPDATED entry follows;
	// both entries stem from the same mutation.
	if statusChange, ok := changes["status"]; ok {
		delete(changes, "status")
		s.audit.Record(ctx, AuditEntry{
			Actor:       actor,
			Action:      models.AuditActionStatusChange,
			EntityType:  models.EntityCase,
			EntityID:    &record.ID,
			EntityLabel: record.Title,
			Changes:     map[string]interface{}{"status": statusChange},
			Network:     net,
		})
	}
	if len(changes) > 0 {
		s.audit.Record(ctx, AuditEntry{
			Actor:       actor,
			Action:      models.AuditActionUpdated,
			EntityType:  models.EntityCase,
			EntityID:    &record.ID,
			EntityLabel: record.Title,
			Changes:     changes,
			Network:     net,
		})
	}

	return dto.NewCaseResponse(*record), nil
}

func (s *caseService) Delete(ctx context.Context, actor authz.Actor, id uint, net NetworkMeta) error {
	ctx, span := s.tracer.Start(ctx, "case.delete")
	defer span.End()

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translateNotFound(err)
	}
	if record.Deleted() {
		return &PreconditionError{Reason: "case already deleted"}
	}

	if err := evaluate(models.EntityCase, "delete", authz.CanDeleteCase(actor, *record)); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, record.ID, actor.ID, time.Now().UTC()); err != nil {
		span.RecordError(err)
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionDeleted,
		EntityType:  models.EntityCase,
		EntityID:    &record.ID,
		EntityLabel: record.Title,
		Network:     net,
	})

	return nil
}

func snapshotCase(record models.CaseRecord) map[string]interface{} {
	return map[string]interface{}{
		"title":       record.Title,
		"description": record.Description,
		"category":    record.Category,
		"priority":    record.Priority,
		"status":      record.Status,
	}
}

func paginationMeta(page, pageSize int, total int64) dto.PaginationMeta {
	meta := dto.PaginationMeta{
		Page:       maxInt(page, 1),
		PageSize:   pageSize,
		TotalItems: total,
	}
	if pageSize > 0 {
		meta.TotalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	} else {
		meta.TotalPages = 1
	}
	return meta
}

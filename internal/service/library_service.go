package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/dto"
	"github.com/noah-isme/sima-go-api/internal/models"
	"github.com/noah-isme/sima-go-api/internal/observability"
	"github.com/noah-isme/sima-go-api/internal/repository"
)

const libraryCacheVersionKey = "library:list:version"

// LibraryService exposes the content library: uploads, edits, the approval
// workflow and role-scoped listings. Listings are cached per actor scope; any
// mutation bumps a shared version key so stale pages expire immediately.
type LibraryService interface {
	Create(ctx context.Context, actor authz.Actor, req dto.LibraryCreateRequest, net NetworkMeta) (dto.LibraryItemResponse, error)
	Get(ctx context.Context, actor authz.Actor, id uint) (dto.LibraryItemResponse, error)
	List(ctx context.Context, actor authz.Actor, req dto.LibraryListRequest) (dto.LibraryListResponse, error)
	ListPending(ctx context.Context, actor authz.Actor, req dto.LibraryListRequest) (dto.LibraryListResponse, error)
	Update(ctx context.Context, actor authz.Actor, id uint, req dto.LibraryUpdateRequest, net NetworkMeta) (dto.LibraryItemResponse, error)
	Approve(ctx context.Context, actor authz.Actor, id uint, net NetworkMeta) (dto.LibraryItemResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id uint, net NetworkMeta) error
}

type libraryService struct {
	repo        repository.LibraryRepository
	audit       AuditRecorder
	cache       *redis.Client
	cacheTTL    time.Duration
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	policy      *bluemonday.Policy
	tracer      trace.Tracer
}

// NewLibraryService constructs the library service. The cache client and the
// NATS connection are both optional; a nil value disables the feature.
func NewLibraryService(repo repository.LibraryRepository, audit AuditRecorder, cache *redis.Client, cacheTTL time.Duration, natsConn *nats.Conn, natsSubject string, validate *validator.Validate, logger zerolog.Logger) LibraryService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &libraryService{
		repo:        repo,
		audit:       audit,
		cache:       cache,
		cacheTTL:    cacheTTL,
		nats:        natsConn,
		natsSubject: natsSubject,
		validator:   validate,
		logger:      logger.With().Str("component", "library_service").Logger(),
		policy:      bluemonday.StrictPolicy(),
		tracer:      otel.Tracer("github.com/noah-isme/sima-go-api/internal/service/library"),
	}
}

func (s *libraryService) Create(ctx context.Context, actor authz.Actor, req dto.LibraryCreateRequest, net NetworkMeta) (dto.LibraryItemResponse, error) {
	ctx, span := s.tracer.Start(ctx, "library.create")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.LibraryItemResponse{}, err
	}

	if err := evaluate(models.EntityLibraryItem, "create", authz.CanUploadLibrary(actor)); err != nil {
		return dto.LibraryItemResponse{}, err
	}

	// Administrators may upload global items (no school); directors always
	// upload into their own school.
	schoolID := req.SchoolID
	if !actor.Role.IsAdministrator() {
		schoolID = actor.SchoolID
	}

	item := models.LibraryItem{
		Title:       strings.TrimSpace(req.Title),
		Description: s.policy.Sanitize(req.Description),
		FileURL:     strings.TrimSpace(req.FileURL),
		Visibility:  req.Visibility,
		SchoolID:    schoolID,
		CreatedBy:   actor.ID,
	}

	state := authz.StampInitialApproval(actor, &item, time.Now().UTC())

	if err := s.repo.Create(ctx, &item); err != nil {
		span.RecordError(err)
		return dto.LibraryItemResponse{}, err
	}

	span.SetAttributes(attribute.String("library.approval_state", string(state)))
	observability.LibraryApprovalEvents().WithLabelValues(string(state)).Inc()

	if state == authz.ApprovalPending {
		s.publishPending(item)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionCreated,
		EntityType:  models.EntityLibraryItem,
		EntityID:    &item.ID,
		EntityLabel: item.Title,
		Metadata:    map[string]interface{}{"visibility": item.Visibility, "approval_state": string(state)},
		Network:     net,
	})

	s.invalidateListCache(ctx)

	return dto.NewLibraryItemResponse(item), nil
}

func (s *libraryService) Get(ctx context.Context, actor authz.Actor, id uint) (dto.LibraryItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.LibraryItemResponse{}, translateNotFound(err)
	}
	if item.Deleted() && !actor.Role.IsAdministrator() {
		return dto.LibraryItemResponse{}, ErrNotFound
	}

	if err := evaluate(models.EntityLibraryItem, "view", authz.CanViewLibraryItem(actor, *item)); err != nil {
		return dto.LibraryItemResponse{}, err
	}

	return dto.NewLibraryItemResponse(*item), nil
}

func (s *libraryService) List(ctx context.Context, actor authz.Actor, req dto.LibraryListRequest) (dto.LibraryListResponse, error) {
	filter := repository.LibraryFilter{
		Page:       maxInt(req.Page, 1),
		PageSize:   clampPageSize(req.PageSize),
		Visibility: strings.ToUpper(strings.TrimSpace(req.Visibility)),
		Search:     strings.TrimSpace(req.Search),
	}
	if actor.Role.IsAdministrator() {
		filter.SchoolID = req.SchoolID
	}

	cacheKey := s.listCacheKey(ctx, actor, filter)
	if cacheKey != "" {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.LibraryListResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				return response, nil
			}
		}
	}

	items, total, err := s.repo.List(ctx, authz.LibraryScopeFor(actor), filter)
	if err != nil {
		return dto.LibraryListResponse{}, err
	}

	response := dto.LibraryListResponse{
		Items:      libraryResponses(items),
		Pagination: paginationMeta(filter.Page, filter.PageSize, total),
	}

	if cacheKey != "" {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache library listing")
			}
		}
	}

	return response, nil
}

func (s *libraryService) ListPending(ctx context.Context, actor authz.Actor, req dto.LibraryListRequest) (dto.LibraryListResponse, error) {
	if err := evaluate(models.EntityLibraryItem, "approve", authz.CanApproveLibrary(actor)); err != nil {
		return dto.LibraryListResponse{}, err
	}

	filter := repository.LibraryFilter{
		Page:     maxInt(req.Page, 1),
		PageSize: clampPageSize(req.PageSize),
		SchoolID: req.SchoolID,
		Search:   strings.TrimSpace(req.Search),
	}

	items, total, err := s.repo.ListPending(ctx, filter)
	if err != nil {
		return dto.LibraryListResponse{}, err
	}

	return dto.LibraryListResponse{
		Items:      libraryResponses(items),
		Pagination: paginationMeta(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *libraryService) Update(ctx context.Context, actor authz.Actor, id uint, req dto.LibraryUpdateRequest, net NetworkMeta) (dto.LibraryItemResponse, error) {
	ctx, span := s.tracer.Start(ctx, "library.update")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.LibraryItemResponse{}, err
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.LibraryItemResponse{}, translateNotFound(err)
	}
	if item.Deleted() {
		return dto.LibraryItemResponse{}, &PreconditionError{Reason: "library item already deleted"}
	}

	if err := evaluate(models.EntityLibraryItem, "update", authz.CanEditLibraryItem(actor, *item)); err != nil {
		return dto.LibraryItemResponse{}, err
	}

	before := snapshotLibraryItem(*item)
	previousState := authz.StateOf(*item)

	if req.Title != nil {
		item.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		item.Description = s.policy.Sanitize(*req.Description)
	}
	if req.FileURL != nil {
		item.FileURL = strings.TrimSpace(*req.FileURL)
	}
	state := previousState
	if req.Visibility != nil {
		state = authz.ApplyVisibilityChange(actor, item, *req.Visibility, time.Now().UTC())
	}

	changes := ComputeChanges(before, snapshotLibraryItem(*item))
	if len(changes) == 0 {
		return dto.NewLibraryItemResponse(*item), nil
	}

	if err := s.repo.Update(ctx, item); err != nil {
		span.RecordError(err)
		return dto.LibraryItemResponse{}, err
	}

	if state != previousState {
		observability.LibraryApprovalEvents().WithLabelValues(string(state)).Inc()
		if state == authz.ApprovalPending {
			s.publishPending(*item)
		}
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionUpdated,
		EntityType:  models.EntityLibraryItem,
		EntityID:    &item.ID,
		EntityLabel: item.Title,
		Changes:     changes,
		Metadata:    map[string]interface{}{"approval_state": string(state)},
		Network:     net,
	})

	s.invalidateListCache(ctx)

	return dto.NewLibraryItemResponse(*item), nil
}

func (s *libraryService) Approve(ctx context.Context, actor authz.Actor, id uint, net NetworkMeta) (dto.LibraryItemResponse, error) {
	ctx, span := s.tracer.Start(ctx, "library.approve")
	defer span.End()

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return dto.LibraryItemResponse{}, translateNotFound(err)
	}
	if item.Deleted() {
		return dto.LibraryItemResponse{}, &PreconditionError{Reason: "library item already deleted"}
	}

	if err := evaluate(models.EntityLibraryItem, "approve", authz.CanApproveLibrary(actor)); err != nil {
		return dto.LibraryItemResponse{}, err
	}

	if !authz.Approve(actor, item, time.Now().UTC()) {
		return dto.LibraryItemResponse{}, &PreconditionError{Reason: "library item is not awaiting approval"}
	}

	if err := s.repo.Update(ctx, item); err != nil {
		span.RecordError(err)
		return dto.LibraryItemResponse{}, err
	}

	observability.LibraryApprovalEvents().WithLabelValues(string(authz.ApprovalApproved)).Inc()

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionStatusChange,
		EntityType:  models.EntityLibraryItem,
		EntityID:    &item.ID,
		EntityLabel: item.Title,
		Changes: map[string]interface{}{
			"approval_state": map[string]interface{}{
				"from": string(authz.ApprovalPending),
				"to":   string(authz.ApprovalApproved),
			},
		},
		Network: net,
	})

	s.invalidateListCache(ctx)

	return dto.NewLibraryItemResponse(*item), nil
}

func (s *libraryService) Delete(ctx context.Context, actor authz.Actor, id uint, net NetworkMeta) error {
	ctx, span := s.tracer.Start(ctx, "library.delete")
	defer span.End()

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return translateNotFound(err)
	}
	if item.Deleted() {
		return &PreconditionError{Reason: "library item already deleted"}
	}

	if err := evaluate(models.EntityLibraryItem, "delete", authz.CanEditLibraryItem(actor, *item)); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, item.ID, actor.ID, time.Now().UTC()); err != nil {
		span.RecordError(err)
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:       actor,
		Action:      models.AuditActionDeleted,
		EntityType:  models.EntityLibraryItem,
		EntityID:    &item.ID,
		EntityLabel: item.Title,
		Network:     net,
	})

	s.invalidateListCache(ctx)

	return nil
}

// listCacheKey scopes cached pages by the list version, the actor's visibility
// class and the filter. Returns "" when caching is disabled.
func (s *libraryService) listCacheKey(ctx context.Context, actor authz.Actor, filter repository.LibraryFilter) string {
	if s.cache == nil {
		return ""
	}

	version, err := s.cache.Get(ctx, libraryCacheVersionKey).Int64()
	if err != nil {
		version = 0
	}

	school := uint(0)
	if actor.SchoolID != nil {
		school = *actor.SchoolID
	}
	filterSchool := uint(0)
	if filter.SchoolID != nil {
		filterSchool = *filter.SchoolID
	}

	return fmt.Sprintf("library:list:v%d:%s:%d:%d:%d:%s:%d:%s",
		version, actor.Role, school, filter.Page, filter.PageSize, filter.Visibility, filterSchool, filter.Search)
}

func (s *libraryService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Incr(ctx, libraryCacheVersionKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to bump library cache version")
	}
}

// publishPending emits a broker event so administrators learn about items
// waiting for sign-off. Best-effort, like audit recording.
func (s *libraryService) publishPending(item models.LibraryItem) {
	if s.nats == nil || s.natsSubject == "" {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"item_id":    item.ID,
		"title":      item.Title,
		"school_id":  item.SchoolID,
		"created_by": item.CreatedBy,
	})
	if err != nil {
		return
	}
	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Uint("item_id", item.ID).Msg("failed to publish pending approval event")
	}
}

func libraryResponses(items []models.LibraryItem) []dto.LibraryItemResponse {
	responses := make([]dto.LibraryItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewLibraryItemResponse(item))
	}
	return responses
}

func snapshotLibraryItem(item models.LibraryItem) map[string]interface{} {
	return map[string]interface{}{
		"title":       item.Title,
		"description": item.Description,
		"file_url":    item.FileURL,
		"visibility":  item.Visibility,
		"is_approved": item.IsApproved,
	}
}

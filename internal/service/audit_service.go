package service

import (
	"context"
	"encoding/json"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/dto"
	"github.com/noah-isme/sima-go-api/internal/models"
	"github.com/noah-isme/sima-go-api/internal/observability"
	"github.com/noah-isme/sima-go-api/internal/repository"
)

// NetworkMeta carries request-level network attribution for audit entries.
type NetworkMeta struct {
	IPAddress string
	UserAgent string
}

// AuditEntry captures one auditable action. Changes holds only fields whose
// serialized old and new values differ; see ComputeChanges.
type AuditEntry struct {
	Actor       authz.Actor
	Action      string
	EntityType  string
	EntityID    *uint
	EntityLabel string
	Changes     datatypes.JSONMap
	Metadata    map[string]interface{}
	Network     NetworkMeta
}

// AuditRecorder appends immutable audit entries. Recording is best-effort:
// a failed write never fails the mutation that produced it, it is only
// surfaced to the operational log and a failure counter.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditService exposes recording plus the administrator query surface.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error)
}

type auditService struct {
	repo   repository.AuditLogRepository
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewAuditService constructs the audit service.
func NewAuditService(repo repository.AuditLogRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/sima-go-api/internal/service/audit"),
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	ctx, span := s.tracer.Start(ctx, "audit.record")
	defer span.End()

	action := strings.ToUpper(strings.TrimSpace(entry.Action))
	entityType := strings.TrimSpace(entry.EntityType)
	if action == "" || entityType == "" {
		s.logger.Error().Str("action", entry.Action).Str("entity_type", entry.EntityType).
			Msg("audit entry dropped: action and entity type are required")
		return
	}

	// Idempotent PATCH calls must not pollute the trail.
	if action == models.AuditActionUpdated && len(entry.Changes) == 0 {
		return
	}

	model := models.AuditLog{
		ActorID:     entry.Actor.ID,
		ActorRole:   string(entry.Actor.Role),
		Action:      action,
		EntityType:  entityType,
		EntityID:    entry.EntityID,
		EntityLabel: strings.TrimSpace(entry.EntityLabel),
		Changes:     entry.Changes,
		Metadata:    sanitizeMetadata(entry.Metadata),
		IPAddress:   entry.Network.IPAddress,
		UserAgent:   entry.Network.UserAgent,
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		span.RecordError(err)
		observability.AuditWriteFailures().Inc()
		s.logger.Error().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Uint("actor_id", entry.Actor.ID).
			Msg("failed to persist audit entry")
		return
	}

	observability.AuditWrites().WithLabelValues(action).Inc()
}

func (s *auditService) List(ctx context.Context, req dto.AuditListRequest) (dto.AuditListResponse, error) {
	filter := repository.AuditLogFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Action:     strings.ToUpper(strings.TrimSpace(req.Action)),
		EntityType: strings.TrimSpace(req.EntityType),
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}
	if req.EntityID > 0 {
		filter.EntityID = &req.EntityID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.AuditListResponse{}, err
	}

	responses := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewAuditEntryResponse(entry))
	}

	pagination := dto.PaginationMeta{
		Page:       maxInt(req.Page, 1),
		PageSize:   req.PageSize,
		TotalItems: total,
	}
	if req.PageSize > 0 {
		pagination.TotalPages = int(math.Ceil(float64(total) / float64(req.PageSize)))
	} else {
		pagination.TotalPages = 1
	}

	return dto.AuditListResponse{Items: responses, Pagination: pagination}, nil
}

// ComputeChanges builds the minimal field-level diff between two snapshots.
// Values are compared by canonical JSON serialization, not reference; a field
// appears only when old and new differ. An empty map means the update was a
// no-op and must not produce an entry.
func ComputeChanges(oldSnapshot, newSnapshot map[string]interface{}) datatypes.JSONMap {
	changes := datatypes.JSONMap{}
	for field, newValue := range newSnapshot {
		oldValue, existed := oldSnapshot[field]
		if existed && canonicalJSON(oldValue) == canonicalJSON(newValue) {
			continue
		}
		changes[field] = map[string]interface{}{"from": oldValue, "to": newValue}
	}
	return changes
}

func canonicalJSON(value interface{}) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(data)
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "password") || strings.Contains(lower, "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

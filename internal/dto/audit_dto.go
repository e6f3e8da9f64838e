package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/sima-go-api/internal/models"
)

// AuditListRequest filters the audit trail.
type AuditListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	Action     string
	EntityType string
	EntityID   uint
}

// AuditEntryResponse serializes one audit trail entry.
type AuditEntryResponse struct {
	ID          uint              `json:"id"`
	ActorID     uint              `json:"actor_id"`
	ActorRole   string            `json:"actor_role"`
	Action      string            `json:"action"`
	EntityType  string            `json:"entity_type"`
	EntityID    *uint             `json:"entity_id,omitempty"`
	EntityLabel string            `json:"entity_label"`
	Changes     datatypes.JSONMap `json:"changes"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	IPAddress   string            `json:"ip_address,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// AuditListResponse wraps a paginated audit trail listing.
type AuditListResponse struct {
	Items      []AuditEntryResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewAuditEntryResponse converts an audit log model into a DTO.
func NewAuditEntryResponse(entry models.AuditLog) AuditEntryResponse {
	return AuditEntryResponse{
		ID:          entry.ID,
		ActorID:     entry.ActorID,
		ActorRole:   entry.ActorRole,
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		EntityLabel: entry.EntityLabel,
		Changes:     entry.Changes,
		Metadata:    entry.Metadata,
		IPAddress:   entry.IPAddress,
		UserAgent:   entry.UserAgent,
		CreatedAt:   entry.CreatedAt,
	}
}

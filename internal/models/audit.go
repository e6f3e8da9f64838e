package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit action constants. The strings are persisted and used as audit-trail
// filter keys; they must remain stable.
const (
	AuditActionCreated         = "CREATED"
	AuditActionUpdated         = "UPDATED"
	AuditActionDeleted         = "DELETED"
	AuditActionStatusChange    = "STATUS_CHANGE"
	AuditActionLogin           = "LOGIN"
	AuditActionLogout          = "LOGOUT"
	AuditActionPasswordChanged = "PASSWORD_CHANGED"
	AuditActionPasswordReset   = "PASSWORD_RESET"
)

// Entity type constants shared by the permission evaluator and the audit trail.
const (
	EntityCase        = "Case"
	EntitySchool      = "School"
	EntityUser        = "User"
	EntityLibraryItem = "LibraryItem"
)

// AuditLog is an immutable record of a state-changing action. The application
// only ever inserts rows; nothing updates or deletes them.
type AuditLog struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	ActorID     uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole   string            `gorm:"size:32;not null" json:"actor_role"`
	Action      string            `gorm:"size:32;not null;index" json:"action"`
	EntityType  string            `gorm:"size:32;not null;index" json:"entity_type"`
	EntityID    *uint             `gorm:"index" json:"entity_id,omitempty"`
	EntityLabel string            `gorm:"size:255" json:"entity_label"`
	Changes     datatypes.JSONMap `gorm:"type:json" json:"changes"`
	Metadata    datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	IPAddress   string            `gorm:"size:64" json:"ip_address"`
	UserAgent   string            `gorm:"size:255" json:"user_agent"`
	CreatedAt   time.Time         `json:"created_at"`
}

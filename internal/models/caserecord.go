package models

import "time"

// Case status values. Transitions are audited as STATUS_CHANGE entries.
const (
	CaseStatusOpen       = "OPEN"
	CaseStatusInProgress = "IN_PROGRESS"
	CaseStatusResolved   = "RESOLVED"
	CaseStatusClosed     = "CLOSED"
)

// Case priority values.
const (
	CasePriorityLow    = "LOW"
	CasePriorityMedium = "MEDIUM"
	CasePriorityHigh   = "HIGH"
)

// CaseRecord represents a registered incident bound to a school.
type CaseRecord struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ReferenceID string     `gorm:"size:64;uniqueIndex" json:"reference_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Category    string     `gorm:"size:64" json:"category"`
	Priority    string     `gorm:"size:16;not null;default:MEDIUM" json:"priority"`
	Status      string     `gorm:"size:32;not null;default:OPEN;index" json:"status"`
	SchoolID    uint       `gorm:"index;not null" json:"school_id"`
	CreatedBy   uint       `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	DeletedBy   *uint      `json:"deleted_by,omitempty"`
}

// Deleted reports whether the case has been soft-deleted.
func (c CaseRecord) Deleted() bool {
	return c.DeletedAt != nil
}

package models

import "time"

// Library item visibility values. PUBLIC items uploaded by non-administrators
// require administrator approval before they become visible across schools.
const (
	VisibilityPublic  = "PUBLIC"
	VisibilityPrivate = "PRIVATE"
)

// LibraryItem represents a shared teaching resource. The file itself lives in
// external storage; only its URL is kept here.
type LibraryItem struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	FileURL     string     `gorm:"size:512" json:"file_url"`
	Visibility  string     `gorm:"size:16;not null;default:PRIVATE;index" json:"visibility"`
	IsApproved  bool       `gorm:"not null;default:false;index" json:"is_approved"`
	ApprovedBy  *uint      `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	SchoolID    *uint      `gorm:"index" json:"school_id,omitempty"`
	CreatedBy   uint       `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	DeletedBy   *uint      `json:"deleted_by,omitempty"`
}

// Deleted reports whether the item has been soft-deleted.
func (l LibraryItem) Deleted() bool {
	return l.DeletedAt != nil
}

package models

import "time"

// School represents an institution that scopes cases, staff and library items.
type School struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:255;not null" json:"name"`
	Code      string     `gorm:"size:32;uniqueIndex" json:"code"`
	City      string     `gorm:"size:128" json:"city"`
	Address   string     `gorm:"size:512" json:"address"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	DeletedBy *uint      `json:"deleted_by,omitempty"`
}

// Deleted reports whether the school has been soft-deleted.
func (s School) Deleted() bool {
	return s.DeletedAt != nil
}

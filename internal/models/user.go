package models

import "time"

// User represents a staff or system account. DIRECTOR and PROFESOR accounts
// are bound to exactly one school; system-wide roles carry no school.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         string     `gorm:"size:32;not null;index" json:"role"`
	SchoolID     *uint      `gorm:"index" json:"school_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	DeletedBy    *uint      `json:"deleted_by,omitempty"`
}

// Deleted reports whether the account has been soft-disabled.
func (u User) Deleted() bool {
	return u.DeletedAt != nil
}

package dto

import (
	"time"

	"github.com/noah-isme/sima-go-api/internal/models"
)

// CaseCreateRequest registers a new case. SchoolID is only honoured for
// administrators; scoped roles always create into their own school.
type CaseCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=10000"`
	Category    string `json:"category" validate:"omitempty,max=64"`
	Priority    string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	SchoolID    *uint  `json:"school_id"`
}

// CaseUpdateRequest carries a partial case patch. Nil fields are untouched.
type CaseUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	Category    *string `json:"category" validate:"omitempty,max=64"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
	Status      *string `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
}

// CaseListRequest filters case listings.
type CaseListRequest struct {
	Page     int
	PageSize int
	Status   string
	Priority string
	SchoolID *uint
	Search   string
}

// CaseResponse serializes a case record.
type CaseResponse struct {
	ID          uint       `json:"id"`
	ReferenceID string     `json:"reference_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	SchoolID    uint       `json:"school_id"`
	CreatedBy   uint       `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// CaseListResponse wraps a paginated case listing.
type CaseListResponse struct {
	Items      []CaseResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// NewCaseResponse converts a case model into a DTO.
func NewCaseResponse(record models.CaseRecord) CaseResponse {
	return CaseResponse{
		ID:          record.ID,
		ReferenceID: record.ReferenceID,
		Title:       record.Title,
		Description: record.Description,
		Category:    record.Category,
		Priority:    record.Priority,
		Status:      record.Status,
		SchoolID:    record.SchoolID,
		CreatedBy:   record.CreatedBy,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
		DeletedAt:   record.DeletedAt,
	}
}

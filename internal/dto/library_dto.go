package dto

import (
	"time"

	"github.com/noah-isme/sima-go-api/internal/models"
)

// LibraryCreateRequest uploads a library item. The file itself is stored
// externally; only its URL arrives here. SchoolID is honoured for
// administrators; directors always upload into their own school.
type LibraryCreateRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=10000"`
	FileURL     string `json:"file_url" validate:"required,url,max=512"`
	Visibility  string `json:"visibility" validate:"required,oneof=PUBLIC PRIVATE"`
	SchoolID    *uint  `json:"school_id"`
}

// LibraryUpdateRequest carries a partial library item patch.
type LibraryUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3,max=255"`
	Description *string `json:"description" validate:"omitempty,max=10000"`
	FileURL     *string `json:"file_url" validate:"omitempty,url,max=512"`
	Visibility  *string `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE"`
}

// LibraryListRequest filters library listings.
type LibraryListRequest struct {
	Page       int
	PageSize   int
	Visibility string
	SchoolID   *uint
	Search     string
}

// LibraryItemResponse serializes a library item.
type LibraryItemResponse struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	FileURL     string     `json:"file_url"`
	Visibility  string     `json:"visibility"`
	IsApproved  bool       `json:"is_approved"`
	ApprovedBy  *uint      `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	SchoolID    *uint      `json:"school_id,omitempty"`
	CreatedBy   uint       `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// LibraryListResponse wraps a paginated library listing.
type LibraryListResponse struct {
	Items      []LibraryItemResponse `json:"items"`
	Pagination PaginationMeta        `json:"pagination"`
	CacheHit   bool                  `json:"-"`
}

// NewLibraryItemResponse converts a library model into a DTO.
func NewLibraryItemResponse(item models.LibraryItem) LibraryItemResponse {
	return LibraryItemResponse{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		FileURL:     item.FileURL,
		Visibility:  item.Visibility,
		IsApproved:  item.IsApproved,
		ApprovedBy:  item.ApprovedBy,
		ApprovedAt:  item.ApprovedAt,
		SchoolID:    item.SchoolID,
		CreatedBy:   item.CreatedBy,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

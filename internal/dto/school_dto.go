package dto

import (
	"time"

	"github.com/noah-isme/sima-go-api/internal/models"
)

// SchoolCreateRequest registers a new school.
type SchoolCreateRequest struct {
	Name    string `json:"name" validate:"required,min=3,max=255"`
	Code    string `json:"code" validate:"required,min=1,max=32"`
	City    string `json:"city" validate:"omitempty,max=128"`
	Address string `json:"address" validate:"omitempty,max=512"`
}

// SchoolUpdateRequest carries a partial school patch.
type SchoolUpdateRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=3,max=255"`
	City    *string `json:"city" validate:"omitempty,max=128"`
	Address *string `json:"address" validate:"omitempty,max=512"`
}

// SchoolListRequest filters school listings.
type SchoolListRequest struct {
	Page     int
	PageSize int
	Search   string
}

// SchoolResponse serializes a school.
type SchoolResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	City      string    `json:"city"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SchoolListResponse wraps a paginated school listing.
type SchoolListResponse struct {
	Items      []SchoolResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
}

// NewSchoolResponse converts a school model into a DTO.
func NewSchoolResponse(school models.School) SchoolResponse {
	return SchoolResponse{
		ID:        school.ID,
		Name:      school.Name,
		Code:      school.Code,
		City:      school.City,
		Address:   school.Address,
		CreatedAt: school.CreatedAt,
		UpdatedAt: school.UpdatedAt,
	}
}

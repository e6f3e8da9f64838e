package dto

import (
	"time"

	"github.com/noah-isme/sima-go-api/internal/models"
)

// UserCreateRequest registers a new account. DIRECTOR and PROFESOR accounts
// must carry a school id.
type UserCreateRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=SUPER_ADMIN ADMIN DIRECTOR PROFESOR USER"`
	SchoolID *uint  `json:"school_id"`
}

// UserUpdateRequest carries a partial profile patch for non-privileged
// fields. Role changes go through UserRoleChangeRequest.
type UserUpdateRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=255"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// UserRoleChangeRequest reassigns an account's role. SUPER_ADMIN only.
type UserRoleChangeRequest struct {
	Role     string `json:"role" validate:"required,oneof=SUPER_ADMIN ADMIN DIRECTOR PROFESOR USER"`
	SchoolID *uint  `json:"school_id"`
}

// UserListRequest filters account listings.
type UserListRequest struct {
	Page     int
	PageSize int
	Role     string
	SchoolID *uint
	Search   string
}

// UserResponse serializes an account. The password hash never leaves the
// model layer.
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	SchoolID  *uint     `json:"school_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListResponse wraps a paginated account listing.
type UserListResponse struct {
	Items      []UserResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// NewUserResponse converts a user model into a DTO.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		SchoolID:  user.SchoolID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

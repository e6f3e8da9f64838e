package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/models"
)

// ActiveUsersError blocks school deletion while active accounts remain
// assigned to it.
type ActiveUsersError struct {
	Count int64
}

func (e *ActiveUsersError) Error() string {
	return fmt.Sprintf("school still has %d active user(s) assigned", e.Count)
}

// SchoolFilter narrows school list queries.
type SchoolFilter struct {
	Page     int
	PageSize int
	Search   string
}

// SchoolRepository exposes persistence helpers for schools.
type SchoolRepository interface {
	Create(ctx context.Context, school *models.School) error
	FindByID(ctx context.Context, id uint) (*models.School, error)
	Update(ctx context.Context, school *models.School) error
	// SoftDelete re-verifies the active-user count inside the same
	// transaction as the delete mark; a stale earlier read must not win a
	// race against a concurrent user assignment.
	SoftDelete(ctx context.Context, id uint, deletedBy uint, at time.Time) error
	CountActiveUsers(ctx context.Context, schoolID uint) (int64, error)
	List(ctx context.Context, scope authz.Scope, filter SchoolFilter) ([]models.School, int64, error)
}

type schoolRepository struct {
	db *gorm.DB
}

// NewSchoolRepository constructs the school repository.
func NewSchoolRepository(db *gorm.DB) SchoolRepository {
	return &schoolRepository{db: db}
}

func (r *schoolRepository) Create(ctx context.Context, school *models.School) error {
	return r.db.WithContext(ctx).Create(school).Error
}

func (r *schoolRepository) FindByID(ctx context.Context, id uint) (*models.School, error) {
	var school models.School
	if err := r.db.WithContext(ctx).First(&school, id).Error; err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *schoolRepository) Update(ctx context.Context, school *models.School) error {
	return r.db.WithContext(ctx).Save(school).Error
}

func (r *schoolRepository) CountActiveUsers(ctx context.Context, schoolID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("school_id = ? AND deleted_at IS NULL", schoolID).
		Count(&count).Error
	return count, err
}

func (r *schoolRepository) SoftDelete(ctx context.Context, id uint, deletedBy uint, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).
			Where("school_id = ? AND deleted_at IS NULL", id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &ActiveUsersError{Count: count}
		}

		return tx.Model(&models.School{}).
			Where("id = ? AND deleted_at IS NULL", id).
			Updates(map[string]interface{}{"deleted_at": at, "deleted_by": deletedBy}).Error
	})
}

func (r *schoolRepository) List(ctx context.Context, scope authz.Scope, filter SchoolFilter) ([]models.School, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.School{}).Scopes(scope)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", pattern, pattern)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var schools []models.School
	if err := query.Order("name ASC").Find(&schools).Error; err != nil {
		return nil, 0, err
	}

	return schools, total, nil
}

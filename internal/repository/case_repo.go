package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/models"
)

// CaseFilter narrows case list queries. SchoolID is only honoured for
// administrators, who may narrow an otherwise unrestricted listing.
type CaseFilter struct {
	Page     int
	PageSize int
	Status   string
	Priority string
	SchoolID *uint
	Search   string
}

// CaseRepository exposes persistence helpers for case records.
type CaseRepository interface {
	Create(ctx context.Context, record *models.CaseRecord) error
	FindByID(ctx context.Context, id uint) (*models.CaseRecord, error)
	Update(ctx context.Context, record *models.CaseRecord) error
	SoftDelete(ctx context.Context, id uint, deletedBy uint, at time.Time) error
	List(ctx context.Context, scope authz.Scope, filter CaseFilter) ([]models.CaseRecord, int64, error)
}

type caseRepository struct {
	db *gorm.DB
}

// NewCaseRepository constructs the case repository.
func NewCaseRepository(db *gorm.DB) CaseRepository {
	return &caseRepository{db: db}
}

func (r *caseRepository) Create(ctx context.Context, record *models.CaseRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *caseRepository) FindByID(ctx context.Context, id uint) (*models.CaseRecord, error) {
	var record models.CaseRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *caseRepository) Update(ctx context.Context, record *models.CaseRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *caseRepository) SoftDelete(ctx context.Context, id uint, deletedBy uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.CaseRecord{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{"deleted_at": at, "deleted_by": deletedBy}).Error
}

func (r *caseRepository) List(ctx context.Context, scope authz.Scope, filter CaseFilter) ([]models.CaseRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CaseRecord{}).Scopes(scope)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.SchoolID != nil {
		query = query.Where("school_id = ?", *filter.SchoolID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR reference_id LIKE ?", pattern, pattern)
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

	var records []models.CaseRecord
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

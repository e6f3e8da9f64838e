package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/sima-go-api/internal/authz"
	"github.com/noah-isme/sima-go-api/internal/models"
)

// LibraryFilter narrows library list queries.
type LibraryFilter struct {
	Page       int
	PageSize   int
	Visibility string
	SchoolID   *uint
	Search     string
}

// LibraryRepository exposes persistence helpers for library items.
type LibraryRepository interface {
	Create(ctx context.Context, item *models.LibraryItem) error
	FindByID(ctx context.Context, id uint) (*models.LibraryItem, error)
	Update(ctx context.Context, item *models.LibraryItem) error
	SoftDelete(ctx context.Context, id uint, deletedBy uint, at time.Time) error
	List(ctx context.Context, scope authz.Scope, filter LibraryFilter) ([]models.LibraryItem, int64, error)
	ListPending(ctx context.Context, filter LibraryFilter) ([]models.LibraryItem, int64, error)
}

type libraryRepository struct {
	db *gorm.DB
}

// NewLibraryRepository constructs the library repository.
func NewLibraryRepository(db *gorm.DB) LibraryRepository {
	return &libraryRepository{db: db}
}

func (r *libraryRepository) Create(ctx context.Context, item *models.LibraryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *libraryRepository) FindByID(ctx context.Context, id uint) (*models.LibraryItem, error) {
	var item models.LibraryItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *libraryRepository) Update(ctx context.Context, item *models.LibraryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *libraryRepository) SoftDelete(ctx context.Context, id uint, deletedBy uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.LibraryItem{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{"deleted_at": at, "deleted_by": deletedBy}).Error
}

func (r *libraryRepository) List(ctx context.Context, scope authz.Scope, filter LibraryFilter) ([]models.LibraryItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LibraryItem{}).Scopes(scope)
	return r.listWith(query, filter)
}

// ListPending returns PUBLIC items awaiting administrator sign-off. Reached
// only from administrator surfaces; no visibility scope applies beyond the
// soft-delete exclusion.
func (r *libraryRepository) ListPending(ctx context.Context, filter LibraryFilter) ([]models.LibraryItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LibraryItem{}).
		Scopes(authz.NotDeleted).
		Where("visibility = ? AND is_approved = ?", models.VisibilityPublic, false)
	return r.listWith(query, filter)
}

func (r *libraryRepository) listWith(query *gorm.DB, filter LibraryFilter) ([]models.LibraryItem, int64, error) {
	if filter.Visibility != "" {
		query = query.Where("visibility = ?", filter.Visibility)
	}
	if filter.SchoolID != nil {
		query = query.Where("school_id = ?", *filter.SchoolID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title LIKE ?", pattern)
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

	var items []models.LibraryItem
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biscenic/commerce-backend/pkg/db/models"
)

// ListFilter narrows the catalog listing.
type ListFilter struct {
	CollectionID *uuid.UUID
	Limit        int
	Offset       int
}

// Repository reads the product catalog.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if filter.CollectionID != nil {
		query = query.Where("collection_id = ?", *filter.CollectionID)
	}

	var records []models.Product
	err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

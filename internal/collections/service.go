package collections

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biscenic/commerce-backend/pkg/db/models"
	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
)

// CollectionDTO is the API-facing shape of a collection.
type CollectionDTO struct {
	ID          uuid.UUID `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Repository reads collections.
type Repository interface {
	List(ctx context.Context) ([]models.Collection, error)
	FindBySlug(ctx context.Context, slug string) (*models.Collection, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a collections repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]models.Collection, error) {
	var records []models.Collection
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&collection).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// Service exposes read-only collection operations.
type Service interface {
	List(ctx context.Context) ([]CollectionDTO, error)
	GetBySlug(ctx context.Context, slug string) (*CollectionDTO, error)
}

type service struct {
	repo Repository
}

// NewService builds a collections service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("collections repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]CollectionDTO, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list collections")
	}
	out := make([]CollectionDTO, 0, len(records))
	for i := range records {
		out = append(out, toDTO(&records[i]))
	}
	return out, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*CollectionDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "collection slug is required")
	}
	record, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "collection not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load collection")
	}
	dto := toDTO(record)
	return &dto, nil
}

func toDTO(record *models.Collection) CollectionDTO {
	return CollectionDTO{
		ID:          record.ID,
		Slug:        record.Slug,
		Name:        record.Name,
		Description: record.Description,
		ImageURL:    record.ImageURL,
		CreatedAt:   record.CreatedAt,
	}
}

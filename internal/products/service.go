package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/biscenic/commerce-backend/pkg/errors"
)

// Service exposes read-only catalog operations.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]ProductDTO, error)
	Get(ctx context.Context, idOrSlug string) (*ProductDTO, error)
}

type service struct {
	repo Repository
}

// NewService builds a products service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

// List returns active products, newest first.
func (s *service) List(ctx context.Context, filter ListFilter) ([]ProductDTO, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 24
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(records))
	for i := range records {
		out = append(out, *toDTO(&records[i]))
	}
	return out, nil
}

// Get resolves a product by UUID or, failing that, by slug.
func (s *service) Get(ctx context.Context, idOrSlug string) (*ProductDTO, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var err error
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		var product *ProductDTO
		product, err = s.findByID(ctx, id)
		if err == nil {
			return product, nil
		}
	} else {
		var product *ProductDTO
		product, err = s.findBySlug(ctx, idOrSlug)
		if err == nil {
			return product, nil
		}
	}
	return nil, err
}

func (s *service) findByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return toDTO(record), nil
}

func (s *service) findBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	record, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return toDTO(record), nil
}

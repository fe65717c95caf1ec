package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/biscenic/commerce-backend/pkg/db/models"
)

// ProductDTO is the API-facing shape of a catalog entry.
type ProductDTO struct {
	ID           uuid.UUID       `json:"id"`
	CollectionID *uuid.UUID      `json:"collectionId,omitempty"`
	Slug         string          `json:"slug"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ThumbnailURL string          `json:"thumbnailUrl"`
	Images       []string        `json:"images"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func toDTO(product *models.Product) *ProductDTO {
	if product == nil {
		return nil
	}
	return &ProductDTO{
		ID:           product.ID,
		CollectionID: product.CollectionID,
		Slug:         product.Slug,
		Name:         product.Name,
		Description:  product.Description,
		Price:        product.Price,
		ThumbnailURL: product.ThumbnailURL,
		Images:       append([]string(nil), product.Images...),
		CreatedAt:    product.CreatedAt,
	}
}

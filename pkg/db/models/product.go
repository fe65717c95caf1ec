package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a storefront catalog entry.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CollectionID *uuid.UUID      `gorm:"column:collection_id;type:uuid"`
	Slug         string          `gorm:"column:slug;not null;uniqueIndex"`
	Name         string          `gorm:"column:name;not null"`
	Description  string          `gorm:"column:description"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(14,2);not null"`
	ThumbnailURL string          `gorm:"column:thumbnail_url"`
	Images       pq.StringArray  `gorm:"column:images;type:text[]"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

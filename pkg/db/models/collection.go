package models

import (
	"time"

	"github.com/google/uuid"
)

// Collection groups products for the storefront browse pages.
type Collection struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	ImageURL    string    `gorm:"column:image_url"`
	Products    []Product `gorm:"foreignKey:CollectionID"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog listing. Stock only moves down at order placement.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int             `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	ImageURL    *string         `gorm:"column:image_url"`
	ImageKey    *string         `gorm:"column:image_key"`
	CategoryID  *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Category    *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

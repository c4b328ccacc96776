package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the canonical catalog listing. Cart logic treats it as
// read-only; only the store mutates it.
type Product struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Description *string         `gorm:"column:description" json:"description,omitempty"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Image       string          `gorm:"column:image;not null" json:"image"`
	ExtraImages []string        `gorm:"column:extra_images;serializer:json" json:"extra_images,omitempty"`
	Stock       int             `gorm:"column:stock;not null;default:0" json:"stock"`
	CategoryID  int64           `gorm:"column:category_id;not null" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

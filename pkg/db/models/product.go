package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hooterhq/hooter-backend/pkg/enums"
)

// Product represents the canonical catalogue listing.
type Product struct {
	UID         uuid.UUID           `gorm:"column:uid;type:uuid;primaryKey"`
	BrandID     uuid.UUID           `gorm:"column:brand_id;type:uuid;not null;index:idx_products_brand"`
	Title       string              `gorm:"column:title;not null"`
	BodyHTML    *string             `gorm:"column:body_html"`
	Vendor      *string             `gorm:"column:vendor"`
	ProductType *string             `gorm:"column:product_type"`
	Tags        string              `gorm:"column:tags;not null;default:''"`
	Status      enums.ProductStatus `gorm:"column:status;not null;default:'ACTIVE'"`

	// Flattened from the first variant so listings read one row.
	SKU            string           `gorm:"column:sku;not null;default:''"`
	Price          decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	CompareAtPrice *decimal.Decimal `gorm:"column:compare_at_price;type:numeric(12,2)"`
	Barcode        *string          `gorm:"column:barcode"`
	Weight         *float64         `gorm:"column:weight;type:numeric(10,3)"`
	WeightUnit     enums.WeightUnit `gorm:"column:weight_unit;not null;default:'GRAMS'"`

	Variants    []ProductVariant    `gorm:"foreignKey:ProductUID;constraint:OnDelete:CASCADE"`
	Images      []ProductImage      `gorm:"foreignKey:ProductUID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

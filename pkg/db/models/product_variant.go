package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hooterhq/hooter-backend/pkg/enums"
)

// ProductVariant holds the sellable unit data pushed to the remote platform.
// RemoteVariantID and InventoryItemID are populated after a successful sync.
type ProductVariant struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ProductUID      uuid.UUID        `gorm:"column:product_uid;type:uuid;not null;index:idx_product_variants_product"`
	SKU             string           `gorm:"column:sku;not null"`
	Price           decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	CompareAtPrice  *decimal.Decimal `gorm:"column:compare_at_price;type:numeric(12,2)"`
	Barcode         *string          `gorm:"column:barcode"`
	Weight          *float64         `gorm:"column:weight;type:numeric(10,3)"`
	WeightUnit      enums.WeightUnit `gorm:"column:weight_unit;not null;default:'GRAMS'"`
	Position        int              `gorm:"column:position;not null;default:0"`
	RemoteVariantID *string          `gorm:"column:remote_variant_id;index:idx_product_variants_remote"`
	InventoryItemID *string          `gorm:"column:inventory_item_id;index:idx_product_variants_inventory_item"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

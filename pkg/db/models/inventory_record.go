package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hooterhq/hooter-backend/pkg/enums"
)

// InventoryRecord tracks the last quantity pushed for a variant at a remote
// location. One record exists per variant and location pair.
type InventoryRecord struct {
	ID         uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	VariantID  uuid.UUID                 `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:idx_inventory_records_variant_location"`
	LocationID string                    `gorm:"column:location_id;not null;uniqueIndex:idx_inventory_records_variant_location"`
	Quantity   int                       `gorm:"column:quantity;not null;default:0"`
	Status     enums.InventorySyncStatus `gorm:"column:status;not null;default:'IN_SYNC'"`
	SyncedAt   time.Time                 `gorm:"column:synced_at"`
	CreatedAt  time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hooterhq/hooter-backend/pkg/enums"
)

// RemoteMapping links a catalogue product with its counterpart on a store.
// At most one mapping exists per product and store pair.
type RemoteMapping struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	ProductUID      uuid.UUID        `gorm:"column:product_uid;type:uuid;not null;uniqueIndex:idx_remote_mappings_uid_store"`
	StoreID         uuid.UUID        `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_remote_mappings_uid_store"`
	RemoteProductID string           `gorm:"column:remote_product_id;not null;index:idx_remote_mappings_remote_product"`
	SyncStatus      enums.SyncStatus `gorm:"column:sync_status;not null"`
	LastSyncedAt    *time.Time       `gorm:"column:last_synced_at"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

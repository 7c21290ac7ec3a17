package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hooterhq/hooter-backend/pkg/enums"
)

// ChangeLogEntry is an append-only audit row. ActorUserID is nil for changes
// originating from remote webhooks.
type ChangeLogEntry struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	BrandID     uuid.UUID         `gorm:"column:brand_id;type:uuid;not null;index:idx_change_log_entries_brand"`
	ProductUID  *uuid.UUID        `gorm:"column:product_uid;type:uuid;index:idx_change_log_entries_product"`
	Action      enums.AuditAction `gorm:"column:action;not null"`
	Source      enums.AuditSource `gorm:"column:source;not null"`
	ActorUserID *uuid.UUID        `gorm:"column:actor_user_id;type:uuid"`
	Payload     string            `gorm:"column:payload;not null;default:'{}'"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}

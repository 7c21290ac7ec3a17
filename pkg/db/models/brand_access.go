package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hooterhq/hooter-backend/pkg/enums"
)

// BrandAccess links a user with a brand and captures their role.
type BrandAccess struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BrandID   uuid.UUID       `gorm:"column:brand_id;type:uuid;not null;uniqueIndex:idx_brand_accesses_brand_user"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_brand_accesses_brand_user"`
	Role      enums.BrandRole `gorm:"column:role;not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

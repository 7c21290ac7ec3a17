package models

import (
	"time"

	"github.com/google/uuid"
)

// Store represents a connected Shopify shop owned by a brand. The admin API
// token is held encrypted at rest and only decrypted when a sync runs.
type Store struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	BrandID        uuid.UUID  `gorm:"column:brand_id;type:uuid;not null"`
	ShopDomain     string     `gorm:"column:shop_domain;not null;uniqueIndex:idx_stores_shop_domain"`
	ShopName       string     `gorm:"column:shop_name;not null;default:''"`
	EncryptedToken string     `gorm:"column:encrypted_token;not null"`
	IsPrimary      bool       `gorm:"column:is_primary;not null;default:false"`
	DeletedAt      *time.Time `gorm:"column:deleted_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductImage stores ordered image entries for products. RemoteMediaID is
// populated once the image has been attached on the remote platform.
type ProductImage struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductUID    uuid.UUID `gorm:"column:product_uid;type:uuid;not null;index:idx_product_images_product"`
	SourceURL     string    `gorm:"column:source_url;not null"`
	AltText       *string   `gorm:"column:alt_text"`
	Position      int       `gorm:"column:position;not null;default:0"`
	RemoteMediaID *string   `gorm:"column:remote_media_id"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

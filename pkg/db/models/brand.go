package models

import (
	"time"

	"github.com/google/uuid"
)

// Brand represents the canonical tenant model.
type Brand struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	OwnerUserID uuid.UUID `gorm:"column:owner_user_id;type:uuid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

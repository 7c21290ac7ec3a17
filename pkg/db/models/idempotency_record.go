package models

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord stores the response payload of a completed mutation so a
// replayed request can be answered without touching the remote platform. The
// key is scoped per user and operation.
type IdempotencyRecord struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Key          string    `gorm:"column:key;not null;uniqueIndex:idx_idempotency_records_key_user_scope"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_idempotency_records_key_user_scope"`
	Scope        string    `gorm:"column:scope;not null;uniqueIndex:idx_idempotency_records_key_user_scope"`
	ResponseBody string    `gorm:"column:response_body;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	"github.com/hooterhq/hooter-backend/pkg/logger"
	"gorm.io/gorm"
)

// Entry describes a single change to record.
type Entry struct {
	BrandID     uuid.UUID
	ProductUID  *uuid.UUID
	Action      enums.AuditAction
	Source      enums.AuditSource
	ActorUserID *uuid.UUID
	Payload     any
}

// Recorder appends change log rows. Entries are append-only and are never
// updated or deleted after insert.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder builds a recorder tied to the provided GORM DB.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// WithTx returns a recorder bound to the provided transaction.
func (r *Recorder) WithTx(tx *gorm.DB) *Recorder {
	return &Recorder{db: tx}
}

// Record inserts a change log row for the entry.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if !entry.Action.IsValid() {
		return fmt.Errorf("invalid audit action %q", entry.Action)
	}
	if !entry.Source.IsValid() {
		return fmt.Errorf("invalid audit source %q", entry.Source)
	}

	payload := "{}"
	if entry.Payload != nil {
		raw, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("marshal audit payload: %w", err)
		}
		payload = string(raw)
	}

	row := &models.ChangeLogEntry{
		ID:          uuid.New(),
		BrandID:     entry.BrandID,
		ProductUID:  entry.ProductUID,
		Action:      entry.Action,
		Source:      entry.Source,
		ActorUserID: entry.ActorUserID,
		Payload:     payload,
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// RecordBestEffort records the entry and logs instead of failing when the
// insert errors. Used on paths where the primary write already committed.
func (r *Recorder) RecordBestEffort(ctx context.Context, logg *logger.Logger, entry Entry) {
	if err := r.Record(ctx, entry); err != nil && logg != nil {
		ctx = logg.WithField(ctx, "action", entry.Action.String())
		logg.Error(ctx, "record change log entry", err)
	}
}

// ListByProduct returns change log rows for a product, newest first.
func (r *Recorder) ListByProduct(ctx context.Context, productUID uuid.UUID, limit int) ([]models.ChangeLogEntry, error) {
	var rows []models.ChangeLogEntry
	q := r.db.WithContext(ctx).
		Where("product_uid = ?", productUID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

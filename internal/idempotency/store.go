package idempotency

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/pkg/db"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"gorm.io/gorm"
)

const uniqueKeyUserScope = "idx_idempotency_records_key_user_scope"

// Scopes qualify an idempotency key by operation family and tenant. Keys
// are only deduplicated within the same scope for the same user, so two
// brands may reuse the same client-supplied key independently.

// ProductCreateScope scopes create keys to the brand the product belongs to.
func ProductCreateScope(brandID uuid.UUID) string {
	return "product_create:" + brandID.String()
}

// ProductBulkScope scopes bulk-create keys to the brand of the first item.
func ProductBulkScope(brandID uuid.UUID) string {
	return "product_bulk_create:" + brandID.String()
}

// Store persists idempotency records keyed by (key, user, scope).
type Store struct {
	db *gorm.DB
}

// NewStore builds a store tied to the provided GORM DB.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a store bound to the provided transaction.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// ValidateKey checks a client-supplied idempotency key.
func ValidateKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "idempotency key must not be empty")
	}
	if len(key) > 255 {
		return pkgerrors.New(pkgerrors.CodeValidation, "idempotency key must be at most 255 characters")
	}
	return nil
}

// Lookup returns the stored response body for the key, or nil when the key
// has not been seen for this user and scope.
func (s *Store) Lookup(ctx context.Context, key string, userID uuid.UUID, scope string) (*models.IdempotencyRecord, error) {
	var record models.IdempotencyRecord
	err := s.db.WithContext(ctx).
		First(&record, "key = ? AND user_id = ? AND scope = ?", key, userID, scope).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Save records the response body for the key. A concurrent insert of the
// same (key, user, scope) triple is tolerated silently; the first write wins.
func (s *Store) Save(ctx context.Context, key string, userID uuid.UUID, scope, responseBody string) error {
	record := &models.IdempotencyRecord{
		ID:           uuid.New(),
		Key:          key,
		UserID:       userID,
		Scope:        scope,
		ResponseBody: responseBody,
	}
	err := s.db.WithContext(ctx).Create(record).Error
	if db.IsUniqueViolation(err, uniqueKeyUserScope) {
		return nil
	}
	return err
}

package stores

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository wires together store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a store by ID, excluding soft-deleted rows.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		First(&store, "id = ? AND deleted_at IS NULL", id).
		Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// FindByShopDomain loads a store by its shop domain, excluding soft-deleted
// rows. Used by the webhook reconciler to resolve the calling shop.
func (r *Repository) FindByShopDomain(ctx context.Context, shopDomain string) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		First(&store, "shop_domain = ? AND deleted_at IS NULL", shopDomain).
		Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// ListByBrand lists the live stores connected to a brand.
func (r *Repository) ListByBrand(ctx context.Context, brandID uuid.UUID) ([]models.Store, error) {
	var rows []models.Store
	err := r.db.WithContext(ctx).
		Where("brand_id = ? AND deleted_at IS NULL", brandID).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// FindPrimaryByBrand returns the brand's primary store, or gorm.ErrRecordNotFound.
func (r *Repository) FindPrimaryByBrand(ctx context.Context, brandID uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		First(&store, "brand_id = ? AND is_primary = ? AND deleted_at IS NULL", brandID, true).
		Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// FindOldestActiveByBrand returns the longest-connected live store of the
// brand, skipping excludeID. Returns gorm.ErrRecordNotFound when none remain.
func (r *Repository) FindOldestActiveByBrand(ctx context.Context, brandID, excludeID uuid.UUID) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("brand_id = ? AND id != ? AND deleted_at IS NULL", brandID, excludeID).
		Order("created_at ASC").
		First(&store).
		Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// Create inserts a store row.
func (r *Repository) Create(ctx context.Context, store *models.Store) (*models.Store, error) {
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

// UpdateToken swaps the sealed access token of a live store and refreshes
// the display name reported by the shop.
func (r *Repository) UpdateToken(ctx context.Context, storeID uuid.UUID, sealed, shopName string) error {
	return r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ? AND deleted_at IS NULL", storeID).
		Updates(map[string]any{
			"encrypted_token": sealed,
			"shop_name":       shopName,
		}).
		Error
}

// ClearPrimary unsets the primary flag on every live store of the brand.
func (r *Repository) ClearPrimary(ctx context.Context, brandID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("brand_id = ? AND is_primary = ? AND deleted_at IS NULL", brandID, true).
		Update("is_primary", false).
		Error
}

// SetPrimary marks the store as the brand's primary.
func (r *Repository) SetPrimary(ctx context.Context, storeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ?", storeID).
		Update("is_primary", true).
		Error
}

// SoftDelete stamps deleted_at and clears the primary flag.
func (r *Repository) SoftDelete(ctx context.Context, storeID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ? AND deleted_at IS NULL", storeID).
		Updates(map[string]any{
			"deleted_at": now,
			"is_primary": false,
		}).
		Error
}

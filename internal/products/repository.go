package products

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	"github.com/hooterhq/hooter-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository wires together catalogue, mapping, and inventory persistence.
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

// FindByUID loads a product with variants and images, brand-scoped. Variant
// and image ordering follows the stored position.
func (r *Repository) FindByUID(ctx context.Context, brandID, uid uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&product, "uid = ? AND brand_id = ?", uid, brandID).
		Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateGraph inserts the product row with its variants and images.
func (r *Repository) CreateGraph(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateColumns patches the given columns on a product row.
func (r *Repository) UpdateColumns(ctx context.Context, uid uuid.UUID, columns map[string]any) error {
	if len(columns) == 0 {
		return nil
	}
	columns["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("uid = ?", uid).
		Updates(columns).
		Error
}

func (r *Repository) UpdateVariantColumns(ctx context.Context, variantID uuid.UUID, columns map[string]any) error {
	columns["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Updates(columns).Error
}

// List returns a filtered page of the brand catalogue plus the total count.
func (r *Repository) List(ctx context.Context, input ListProductsInput) ([]models.Product, int64, error) {
	limit := pagination.NormalizeLimit(input.Limit)
	offset := pagination.NormalizeOffset(input.Offset)

	base := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("brand_id = ?", input.BrandID)
	if input.Status != nil {
		base = base.Where("status = ?", *input.Status)
	}
	if search := strings.TrimSpace(input.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		base = base.Where("LOWER(title) LIKE ?", pattern)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err := base.Session(&gorm.Session{}).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindMapping returns the remote mapping for a product and store pair.
func (r *Repository) FindMapping(ctx context.Context, uid, storeID uuid.UUID) (*models.RemoteMapping, error) {
	var mapping models.RemoteMapping
	err := r.db.WithContext(ctx).
		First(&mapping, "product_uid = ? AND store_id = ?", uid, storeID).
		Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// FindMappingByRemoteID resolves a mapping from the remote product id.
// Returns nil without error when no mapping exists.
func (r *Repository) FindMappingByRemoteID(ctx context.Context, remoteProductID string) (*models.RemoteMapping, error) {
	var mapping models.RemoteMapping
	err := r.db.WithContext(ctx).
		First(&mapping, "remote_product_id = ?", remoteProductID).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// UpsertMapping writes the mapping for the (product, store) pair, replacing
// any previous sync outcome. Re-syncs overwrite, never duplicate.
func (r *Repository) UpsertMapping(ctx context.Context, uid, storeID uuid.UUID, remoteProductID string, status enums.SyncStatus, syncedAt time.Time) error {
	tx := r.db.WithContext(ctx)

	var existing models.RemoteMapping
	err := tx.First(&existing, "product_uid = ? AND store_id = ?", uid, storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		mapping := &models.RemoteMapping{
			ID:              uuid.New(),
			ProductUID:      uid,
			StoreID:         storeID,
			RemoteProductID: remoteProductID,
			SyncStatus:      status,
			LastSyncedAt:    &syncedAt,
		}
		return tx.Create(mapping).Error
	}
	if err != nil {
		return err
	}

	existing.RemoteProductID = remoteProductID
	existing.SyncStatus = status
	existing.LastSyncedAt = &syncedAt
	return tx.Save(&existing).Error
}

// ListMappingsByProduct returns every store mapping for a product.
func (r *Repository) ListMappingsByProduct(ctx context.Context, uid uuid.UUID) ([]models.RemoteMapping, error) {
	var rows []models.RemoteMapping
	err := r.db.WithContext(ctx).
		Where("product_uid = ?", uid).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// DeleteProductGraph hard-deletes a product with its variants, images, and
// store mappings.
func (r *Repository) DeleteProductGraph(ctx context.Context, uid uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_uid = ?", uid).Delete(&models.RemoteMapping{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_uid = ?", uid).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_uid = ?", uid).Delete(&models.ProductVariant{}).Error; err != nil {
		return err
	}
	return tx.Where("uid = ?", uid).Delete(&models.Product{}).Error
}

// FindVariantByInventoryItemID resolves a variant from its remote inventory
// item id. Returns nil without error when unknown.
func (r *Repository) FindVariantByInventoryItemID(ctx context.Context, inventoryItemID string) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		First(&variant, "inventory_item_id = ?", inventoryItemID).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// FindProductByUIDOnly loads the bare product row without brand scoping.
// Reserved for webhook paths that resolve tenancy through the mapping.
func (r *Repository) FindProductByUIDOnly(ctx context.Context, uid uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "uid = ?", uid).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpsertInventoryRecord writes the last pushed quantity for a variant at a
// location. One row exists per (variant, location) pair.
func (r *Repository) UpsertInventoryRecord(ctx context.Context, variantID uuid.UUID, locationID string, quantity int, status enums.InventorySyncStatus, syncedAt time.Time) error {
	tx := r.db.WithContext(ctx)

	var existing models.InventoryRecord
	err := tx.First(&existing, "variant_id = ? AND location_id = ?", variantID, locationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record := &models.InventoryRecord{
			ID:         uuid.New(),
			VariantID:  variantID,
			LocationID: locationID,
			Quantity:   quantity,
			Status:     status,
			SyncedAt:   syncedAt,
		}
		return tx.Create(record).Error
	}
	if err != nil {
		return err
	}

	existing.Quantity = quantity
	existing.Status = status
	existing.SyncedAt = syncedAt
	return tx.Save(&existing).Error
}

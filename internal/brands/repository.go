package brands

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository wires together brand and brand access persistence.
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

// FindByID loads a brand by its identifier.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Brand, error) {
	var brand models.Brand
	if err := r.db.WithContext(ctx).First(&brand, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

// Create inserts a brand and the owner access row in one go.
func (r *Repository) Create(ctx context.Context, brand *models.Brand) (*models.Brand, error) {
	if err := r.db.WithContext(ctx).Create(brand).Error; err != nil {
		return nil, err
	}
	access := &models.BrandAccess{
		ID:      uuid.New(),
		BrandID: brand.ID,
		UserID:  brand.OwnerUserID,
		Role:    enums.BrandRoleOwner,
	}
	if err := r.db.WithContext(ctx).Create(access).Error; err != nil {
		return nil, err
	}
	return brand, nil
}

// ListForUser returns the brands a user owns or was granted access to.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Brand, error) {
	var rows []models.Brand
	err := r.db.WithContext(ctx).
		Joins("JOIN brand_accesses ba ON ba.brand_id = brands.id").
		Where("ba.user_id = ?", userID).
		Order("brands.created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// AccessRole returns the role the user holds on the brand, or nil when the
// user has no access row.
func (r *Repository) AccessRole(ctx context.Context, brandID, userID uuid.UUID) (*enums.BrandRole, error) {
	var access models.BrandAccess
	err := r.db.WithContext(ctx).
		First(&access, "brand_id = ? AND user_id = ?", brandID, userID).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &access.Role, nil
}

// GrantAccess upserts an access row for the user on the brand.
func (r *Repository) GrantAccess(ctx context.Context, brandID, userID uuid.UUID, role enums.BrandRole) error {
	var existing models.BrandAccess
	err := r.db.WithContext(ctx).
		First(&existing, "brand_id = ? AND user_id = ?", brandID, userID).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		access := &models.BrandAccess{
			ID:      uuid.New(),
			BrandID: brandID,
			UserID:  userID,
			Role:    role,
		}
		return r.db.WithContext(ctx).Create(access).Error
	}
	if err != nil {
		return err
	}
	existing.Role = role
	return r.db.WithContext(ctx).Save(&existing).Error
}

// RevokeAccess removes the user's access row on the brand. Revoking a user
// with no row is a no-op.
func (r *Repository) RevokeAccess(ctx context.Context, brandID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("brand_id = ? AND user_id = ?", brandID, userID).
		Delete(&models.BrandAccess{}).
		Error
}

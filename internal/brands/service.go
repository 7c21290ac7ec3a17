package brands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/internal/audit"
	"github.com/hooterhq/hooter-backend/pkg/db"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service exposes brand management operations.
type Service interface {
	CreateBrand(ctx context.Context, ownerUserID uuid.UUID, input CreateBrandInput) (*BrandDTO, error)
	GetBrand(ctx context.Context, userID, brandID uuid.UUID) (*BrandDTO, error)
	ListBrands(ctx context.Context, userID uuid.UUID) ([]BrandDTO, error)
	GrantAccess(ctx context.Context, actorUserID, brandID uuid.UUID, input GrantAccessInput) error
	RevokeAccess(ctx context.Context, actorUserID, brandID, userID uuid.UUID) error
}

// CreateBrandInput holds the validated payload to create a brand.
type CreateBrandInput struct {
	Name string
}

// GrantAccessInput names the user and role to grant on a brand.
type GrantAccessInput struct {
	UserID uuid.UUID
	Role   enums.BrandRole
}

// BrandDTO is the outward shape of a brand.
type BrandDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID uuid.UUID `json:"owner_user_id"`
}

type service struct {
	repo     *Repository
	guard    AccessChecker
	dbClient *db.Client
	auditor  *audit.Recorder
}

// NewService constructs a brand service instance.
func NewService(repo *Repository, guard AccessChecker, dbClient *db.Client, auditor *audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("brand repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("brand guard required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, guard: guard, dbClient: dbClient, auditor: auditor}, nil
}

func (s *service) CreateBrand(ctx context.Context, ownerUserID uuid.UUID, input CreateBrandInput) (*BrandDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand name must not be empty")
	}
	if ownerUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner user id required")
	}

	brand := &models.Brand{
		ID:          uuid.New(),
		Name:        name,
		OwnerUserID: ownerUserID,
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, brand); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create brand")
		}
		return s.auditor.WithTx(tx).Record(ctx, audit.Entry{
			BrandID:     brand.ID,
			Action:      enums.AuditActionCreate,
			Source:      enums.AuditSourceAPI,
			ActorUserID: &ownerUserID,
			Payload:     map[string]string{"name": name},
		})
	})
	if err != nil {
		return nil, err
	}
	return toBrandDTO(brand), nil
}

func (s *service) GetBrand(ctx context.Context, userID, brandID uuid.UUID) (*BrandDTO, error) {
	if err := s.guard.Verify(ctx, brandID, userID); err != nil {
		return nil, err
	}
	brand, err := s.repo.FindByID(ctx, brandID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand")
	}
	return toBrandDTO(brand), nil
}

func (s *service) ListBrands(ctx context.Context, userID uuid.UUID) ([]BrandDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}
	out := make([]BrandDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toBrandDTO(&rows[i]))
	}
	return out, nil
}

// GrantAccess lets the brand owner add or change an editor. Only owners may
// manage access rows.
func (s *service) GrantAccess(ctx context.Context, actorUserID, brandID uuid.UUID, input GrantAccessInput) error {
	if !input.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid brand role")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := s.guard.VerifyRole(ctx, brandID, actorUserID, enums.BrandRoleOwner); err != nil {
		return err
	}
	if err := s.repo.GrantAccess(ctx, brandID, input.UserID, input.Role); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant brand access")
	}
	return nil
}

// RevokeAccess removes a user's access row. Only owners may manage access,
// and the owner's own access cannot be revoked.
func (s *service) RevokeAccess(ctx context.Context, actorUserID, brandID, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := s.guard.VerifyRole(ctx, brandID, actorUserID, enums.BrandRoleOwner); err != nil {
		return err
	}
	brand, err := s.repo.FindByID(ctx, brandID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand")
	}
	if brand.OwnerUserID == userID {
		return pkgerrors.New(pkgerrors.CodeValidation, "brand owner access cannot be revoked")
	}
	if err := s.repo.RevokeAccess(ctx, brandID, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke brand access")
	}
	return nil
}

func toBrandDTO(brand *models.Brand) *BrandDTO {
	return &BrandDTO{
		ID:          brand.ID,
		Name:        brand.Name,
		OwnerUserID: brand.OwnerUserID,
	}
}

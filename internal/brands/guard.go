package brands

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"gorm.io/gorm"
)

// AccessChecker answers whether a user may act on a brand.
type AccessChecker interface {
	Verify(ctx context.Context, brandID, userID uuid.UUID) error
	VerifyRole(ctx context.Context, brandID, userID uuid.UUID, roles ...enums.BrandRole) error
}

// Guard enforces brand ownership on every mutating path. A user who has no
// access row for the brand gets the same answer as one acting on a brand
// that does not exist.
type Guard struct {
	repo *Repository
}

// NewGuard builds a guard backed by the brand repository.
func NewGuard(repo *Repository) *Guard {
	return &Guard{repo: repo}
}

// Verify returns nil when the user holds any role on the brand.
func (g *Guard) Verify(ctx context.Context, brandID, userID uuid.UUID) error {
	return g.VerifyRole(ctx, brandID, userID, enums.BrandRoleOwner, enums.BrandRoleEditor)
}

// VerifyRole returns nil when the user holds one of the given roles on the
// brand. Missing brands and missing access rows both map to forbidden so the
// response does not leak which brands exist.
func (g *Guard) VerifyRole(ctx context.Context, brandID, userID uuid.UUID, roles ...enums.BrandRole) error {
	if brandID == uuid.Nil || userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "brand access denied")
	}

	if _, err := g.repo.FindByID(ctx, brandID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "brand access denied")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand")
	}

	role, err := g.repo.AccessRole(ctx, brandID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand access")
	}
	if role == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "brand access denied")
	}
	for _, allowed := range roles {
		if *role == allowed {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "brand access denied")
}

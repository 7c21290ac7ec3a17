package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/internal/audit"
	"github.com/hooterhq/hooter-backend/internal/brands"
	"github.com/hooterhq/hooter-backend/pkg/db"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"github.com/hooterhq/hooter-backend/pkg/logger"
	"github.com/hooterhq/hooter-backend/pkg/shopify"
	"gorm.io/gorm"
)

// Service exposes store connection management.
type Service interface {
	RegisterStore(ctx context.Context, userID, brandID uuid.UUID, input RegisterStoreInput) (*StoreDTO, error)
	GetStore(ctx context.Context, userID, storeID uuid.UUID) (*StoreDTO, error)
	ListStores(ctx context.Context, userID, brandID uuid.UUID) ([]StoreDTO, error)
	SetPrimary(ctx context.Context, userID, storeID uuid.UUID) error
	RotateToken(ctx context.Context, userID, storeID uuid.UUID, accessToken string) (*StoreDTO, error)
	DisconnectStore(ctx context.Context, userID, storeID uuid.UUID) error
	Credentials(ctx context.Context, store *models.Store) (shopify.Credentials, error)
}

// RegisterStoreInput holds the validated payload to connect a store.
type RegisterStoreInput struct {
	ShopDomain  string
	AccessToken string
}

// StoreDTO is the outward shape of a connected store. The access token
// never leaves the service.
type StoreDTO struct {
	ID         uuid.UUID `json:"id"`
	BrandID    uuid.UUID `json:"brand_id"`
	ShopDomain string    `json:"shop_domain"`
	ShopName   string    `json:"shop_name,omitempty"`
	IsPrimary  bool      `json:"is_primary"`
}

// TokenCipher seals and opens store access tokens at rest.
type TokenCipher interface {
	Seal(plaintext string) (string, error)
	Open(encoded string) (string, error)
}

// ShopClientFactory builds per-shop API clients.
type ShopClientFactory interface {
	ForShop(creds shopify.Credentials) (shopify.API, error)
}

type service struct {
	repo     *Repository
	guard    brands.AccessChecker
	dbClient *db.Client
	cipher   TokenCipher
	shops    ShopClientFactory
	auditor  *audit.Recorder
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs a store service instance.
func NewService(
	repo *Repository,
	guard brands.AccessChecker,
	dbClient *db.Client,
	cipher TokenCipher,
	shops ShopClientFactory,
	auditor *audit.Recorder,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("brand guard required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if cipher == nil {
		return nil, fmt.Errorf("token cipher required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop client factory required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		guard:    guard,
		dbClient: dbClient,
		cipher:   cipher,
		shops:    shops,
		auditor:  auditor,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// RegisterStore validates the credentials against the live shop before any
// row is written. The first live store of a brand becomes primary.
func (s *service) RegisterStore(ctx context.Context, userID, brandID uuid.UUID, input RegisterStoreInput) (*StoreDTO, error) {
	domain := normalizeShopDomain(input.ShopDomain)
	if domain == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop domain must not be empty")
	}
	token := strings.TrimSpace(input.AccessToken)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access token must not be empty")
	}

	if err := s.guard.Verify(ctx, brandID, userID); err != nil {
		return nil, err
	}

	client, err := s.shops.ForShop(shopify.Credentials{ShopDomain: domain, AccessToken: token})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store credentials")
	}
	shopName, err := client.ValidateCredentials(ctx)
	if err != nil {
		return nil, err
	}

	sealed, err := s.cipher.Seal(token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seal access token")
	}

	store := &models.Store{
		ID:             uuid.New(),
		BrandID:        brandID,
		ShopDomain:     domain,
		ShopName:       shopName,
		EncryptedToken: sealed,
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		_, err := txRepo.FindPrimaryByBrand(ctx, brandID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			store.IsPrimary = true
		} else if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check primary store")
		}

		if _, err := txRepo.Create(ctx, store); err != nil {
			if db.IsUniqueViolation(err, "idx_stores_shop_domain") {
				return pkgerrors.New(pkgerrors.CodeConflict, "shop domain is already connected")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
		}

		return s.auditor.WithTx(tx).Record(ctx, audit.Entry{
			BrandID:     brandID,
			Action:      enums.AuditActionCreate,
			Source:      enums.AuditSourceAPI,
			ActorUserID: &userID,
			Payload:     map[string]string{"shop_domain": domain},
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithStoreID(ctx, store.ID.String())
	s.logg.Info(ctx, "store connected")

	return toStoreDTO(store), nil
}

func (s *service) GetStore(ctx context.Context, userID, storeID uuid.UUID) (*StoreDTO, error) {
	store, err := s.loadGuarded(ctx, userID, storeID)
	if err != nil {
		return nil, err
	}
	return toStoreDTO(store), nil
}

func (s *service) ListStores(ctx context.Context, userID, brandID uuid.UUID) ([]StoreDTO, error) {
	if err := s.guard.Verify(ctx, brandID, userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByBrand(ctx, brandID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	out := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toStoreDTO(&rows[i]))
	}
	return out, nil
}

// SetPrimary moves the primary flag to the store inside one transaction so
// the brand never has two primaries.
func (s *service) SetPrimary(ctx context.Context, userID, storeID uuid.UUID) error {
	store, err := s.loadGuarded(ctx, userID, storeID)
	if err != nil {
		return err
	}
	if store.IsPrimary {
		return nil
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.ClearPrimary(ctx, store.BrandID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear primary store")
		}
		if err := txRepo.SetPrimary(ctx, store.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set primary store")
		}
		return s.auditor.WithTx(tx).Record(ctx, audit.Entry{
			BrandID:     store.BrandID,
			Action:      enums.AuditActionUpdate,
			Source:      enums.AuditSourceAPI,
			ActorUserID: &userID,
			Payload:     map[string]string{"store_id": store.ID.String(), "change": "set_primary"},
		})
	})
}

// RotateToken replaces the sealed access token of a store. The new token is
// validated against the live shop before anything is written.
func (s *service) RotateToken(ctx context.Context, userID, storeID uuid.UUID, accessToken string) (*StoreDTO, error) {
	token := strings.TrimSpace(accessToken)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "access token must not be empty")
	}

	store, err := s.loadGuarded(ctx, userID, storeID)
	if err != nil {
		return nil, err
	}

	client, err := s.shops.ForShop(shopify.Credentials{ShopDomain: store.ShopDomain, AccessToken: token})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store credentials")
	}
	shopName, err := client.ValidateCredentials(ctx)
	if err != nil {
		return nil, err
	}

	sealed, err := s.cipher.Seal(token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seal access token")
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateToken(ctx, store.ID, sealed, shopName); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate store token")
		}
		return s.auditor.WithTx(tx).Record(ctx, audit.Entry{
			BrandID:     store.BrandID,
			Action:      enums.AuditActionUpdate,
			Source:      enums.AuditSourceAPI,
			ActorUserID: &userID,
			Payload:     map[string]string{"store_id": store.ID.String(), "change": "rotate_token"},
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithStoreID(ctx, store.ID.String())
	s.logg.Info(ctx, "store token rotated")

	store.ShopName = shopName
	return toStoreDTO(store), nil
}

// DisconnectStore soft-deletes the store. Sync history and mappings stay in
// place for audit purposes. When the primary store is disconnected the flag
// moves to the oldest remaining live store of the brand.
func (s *service) DisconnectStore(ctx context.Context, userID, storeID uuid.UUID) error {
	store, err := s.loadGuarded(ctx, userID, storeID)
	if err != nil {
		return err
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.SoftDelete(ctx, store.ID, s.now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "disconnect store")
		}
		if store.IsPrimary {
			next, err := txRepo.FindOldestActiveByBrand(ctx, store.BrandID, store.ID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find replacement primary store")
			}
			if next != nil {
				if err := txRepo.SetPrimary(ctx, next.ID); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reassign primary store")
				}
			}
		}
		return s.auditor.WithTx(tx).Record(ctx, audit.Entry{
			BrandID:     store.BrandID,
			Action:      enums.AuditActionDelete,
			Source:      enums.AuditSourceAPI,
			ActorUserID: &userID,
			Payload:     map[string]string{"store_id": store.ID.String()},
		})
	})
}

// Credentials opens the sealed token for internal callers. Never exposed
// over the API surface.
func (s *service) Credentials(ctx context.Context, store *models.Store) (shopify.Credentials, error) {
	token, err := s.cipher.Open(store.EncryptedToken)
	if err != nil {
		return shopify.Credentials{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open store token")
	}
	return shopify.Credentials{ShopDomain: store.ShopDomain, AccessToken: token}, nil
}

func (s *service) loadGuarded(ctx context.Context, userID, storeID uuid.UUID) (*models.Store, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if err := s.guard.Verify(ctx, store.BrandID, userID); err != nil {
		return nil, err
	}
	return store, nil
}

func normalizeShopDomain(domain string) string {
	domain = strings.TrimSpace(strings.ToLower(domain))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimRight(domain, "/")
}

func toStoreDTO(store *models.Store) *StoreDTO {
	return &StoreDTO{
		ID:         store.ID,
		BrandID:    store.BrandID,
		ShopDomain: store.ShopDomain,
		ShopName:   store.ShopName,
		IsPrimary:  store.IsPrimary,
	}
}

package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hooterhq/hooter-backend/internal/audit"
	brandsvc "github.com/hooterhq/hooter-backend/internal/brands"
	productsvc "github.com/hooterhq/hooter-backend/internal/products"
	storesvc "github.com/hooterhq/hooter-backend/internal/stores"
	webhooksvc "github.com/hooterhq/hooter-backend/internal/webhooks"
	pkgauth "github.com/hooterhq/hooter-backend/pkg/auth"
	"github.com/hooterhq/hooter-backend/pkg/config"
	"github.com/hooterhq/hooter-backend/pkg/db"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"github.com/hooterhq/hooter-backend/pkg/logger"
	"github.com/hooterhq/hooter-backend/pkg/shopify"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubBrandService struct{}

func (stubBrandService) CreateBrand(ctx context.Context, ownerUserID uuid.UUID, input brandsvc.CreateBrandInput) (*brandsvc.BrandDTO, error) {
	return &brandsvc.BrandDTO{ID: uuid.New(), Name: input.Name, OwnerUserID: ownerUserID}, nil
}

func (stubBrandService) GetBrand(ctx context.Context, userID, brandID uuid.UUID) (*brandsvc.BrandDTO, error) {
	return &brandsvc.BrandDTO{ID: brandID, Name: "Hooter Supply"}, nil
}

func (stubBrandService) ListBrands(ctx context.Context, userID uuid.UUID) ([]brandsvc.BrandDTO, error) {
	return []brandsvc.BrandDTO{}, nil
}

func (stubBrandService) GrantAccess(ctx context.Context, actorUserID, brandID uuid.UUID, input brandsvc.GrantAccessInput) error {
	return nil
}

func (stubBrandService) RevokeAccess(ctx context.Context, actorUserID, brandID, userID uuid.UUID) error {
	return nil
}

type stubStoreService struct{}

func (stubStoreService) RegisterStore(ctx context.Context, userID, brandID uuid.UUID, input storesvc.RegisterStoreInput) (*storesvc.StoreDTO, error) {
	return &storesvc.StoreDTO{ID: uuid.New()}, nil
}

func (stubStoreService) GetStore(ctx context.Context, userID, storeID uuid.UUID) (*storesvc.StoreDTO, error) {
	return &storesvc.StoreDTO{ID: storeID}, nil
}

func (stubStoreService) ListStores(ctx context.Context, userID, brandID uuid.UUID) ([]storesvc.StoreDTO, error) {
	return nil, nil
}

func (stubStoreService) SetPrimary(ctx context.Context, userID, storeID uuid.UUID) error {
	return nil
}

func (stubStoreService) RotateToken(ctx context.Context, userID, storeID uuid.UUID, accessToken string) (*storesvc.StoreDTO, error) {
	return &storesvc.StoreDTO{ID: storeID}, nil
}

func (stubStoreService) DisconnectStore(ctx context.Context, userID, storeID uuid.UUID) error {
	return nil
}

func (stubStoreService) Credentials(ctx context.Context, store *models.Store) (shopify.Credentials, error) {
	return shopify.Credentials{}, nil
}

type stubProductService struct {
	lastIdempotencyKey string
}

func (s *stubProductService) CreateProduct(ctx context.Context, userID uuid.UUID, input productsvc.CreateProductInput) (*productsvc.CreateProductResult, error) {
	s.lastIdempotencyKey = input.IdempotencyKey
	return &productsvc.CreateProductResult{
		UID:             uuid.New(),
		RemoteProductID: "gid://shopify/Product/1",
		ImagesCount:     len(input.Images),
		Status:          string(input.Status),
	}, nil
}

func (s *stubProductService) BulkCreateProducts(ctx context.Context, userID uuid.UUID, idempotencyKey string, inputs []productsvc.CreateProductInput) ([]productsvc.BulkItemResult, error) {
	results := make([]productsvc.BulkItemResult, len(inputs))
	for i := range inputs {
		results[i] = productsvc.BulkItemResult{Index: i}
	}
	return results, nil
}

func (s *stubProductService) GetProduct(ctx context.Context, userID, brandID, uid uuid.UUID) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{UID: uid, BrandID: brandID}, nil
}

func (s *stubProductService) ListProducts(ctx context.Context, userID uuid.UUID, input productsvc.ListProductsInput) (*productsvc.ProductListResult, error) {
	return &productsvc.ProductListResult{Limit: input.Limit, Offset: input.Offset}, nil
}

func (s *stubProductService) UpdateProduct(ctx context.Context, userID, brandID, uid uuid.UUID, input productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	return &productsvc.ProductDTO{UID: uid, BrandID: brandID}, nil
}

func (s *stubProductService) DeleteProduct(ctx context.Context, userID, brandID, uid uuid.UUID, soft bool) error {
	return nil
}

func (s *stubProductService) UpdateVariantPricing(ctx context.Context, userID, brandID, uid, variantID uuid.UUID, input productsvc.VariantPricingInput) (*productsvc.VariantDTO, error) {
	return &productsvc.VariantDTO{ID: variantID}, nil
}

func (s *stubProductService) ProductHistory(ctx context.Context, userID, brandID, uid uuid.UUID, limit int) ([]productsvc.ChangeLogDTO, error) {
	return []productsvc.ChangeLogDTO{}, nil
}

func (s *stubProductService) SyncInventory(ctx context.Context, userID, brandID, uid uuid.UUID, input productsvc.InventorySyncInput) (*productsvc.InventorySyncResult, error) {
	return &productsvc.InventorySyncResult{}, nil
}

const webhookSecret = "whsec_router_test"

func newRouterFixture(t *testing.T) (http.Handler, *config.Config, *stubProductService) {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error")})

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Brand{},
		&models.Store{},
		&models.Product{},
		&models.ProductVariant{},
		&models.ProductImage{},
		&models.RemoteMapping{},
		&models.InventoryRecord{},
		&models.ChangeLogEntry{},
	))

	dbClient := db.NewFromConn(conn)
	reconciler, err := webhooksvc.NewReconciler(
		productsvc.NewRepository(conn),
		dbClient,
		audit.NewRecorder(conn),
		nil,
		webhookSecret,
		logg,
	)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "router-test-secret", Issuer: "hooter-test", ExpirationMinutes: 15}

	products := &stubProductService{}
	handler := NewRouter(cfg, logg, stubPinger{}, stubPinger{}, stubBrandService{}, stubStoreService{}, products, reconciler)
	return handler, cfg, products
}

func mintToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)
	return token
}

func TestHealthLive(t *testing.T) {
	handler, _, _ := newRouterFixture(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test", rec.Header().Get("X-Hooter-Env"))
}

func TestHealthReady(t *testing.T) {
	handler, _, _ := newRouterFixture(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	handler, _, _ := newRouterFixture(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/brands", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRejectsTamperedToken(t *testing.T) {
	handler, cfg, _ := newRouterFixture(t)

	token := mintToken(t, cfg)
	req := httptest.NewRequest("GET", "/api/v1/brands", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthedBrandListSucceeds(t *testing.T) {
	handler, cfg, _ := newRouterFixture(t)

	req := httptest.NewRequest("GET", "/api/v1/brands", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestProductCreatePassesIdempotencyKey(t *testing.T) {
	handler, cfg, products := newRouterFixture(t)

	body := fmt.Sprintf(`{
		"brand_id": %q,
		"store_id": %q,
		"title": "Red T-Shirt",
		"variants": [{"sku": "RT-001", "price": "19.99"}]
	}`, uuid.NewString(), uuid.NewString())

	req := httptest.NewRequest("POST", "/api/v1/products", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg))
	req.Header.Set("Idempotency-Key", "key-123")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "key-123", products.lastIdempotencyKey)
}

func TestProductCreateRejectsUnknownFields(t *testing.T) {
	handler, cfg, _ := newRouterFixture(t)

	req := httptest.NewRequest("POST", "/api/v1/products", strings.NewReader(`{"surprise": true}`))
	req.Header.Set("Authorization", "Bearer "+mintToken(t, cfg))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	handler, _, _ := newRouterFixture(t)

	req := httptest.NewRequest("POST", "/api/v1/webhooks/shopify/product-update", strings.NewReader(`{"id": 1}`))
	req.Header.Set("X-Signature", "deadbeef")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookUnknownProductIsIgnored(t *testing.T) {
	handler, _, _ := newRouterFixture(t)

	body := `{"id": 424242, "title": "Ghost"}`
	req := httptest.NewRequest("POST", "/api/v1/webhooks/shopify/product-update", strings.NewReader(body))
	req.Header.Set("X-Signature", webhooksvc.Sign(webhookSecret, []byte(body)))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "ignored", envelope.Data["outcome"])
}

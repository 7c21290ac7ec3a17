package webhooks

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/internal/audit"
	"github.com/hooterhq/hooter-backend/internal/products"
	"github.com/hooterhq/hooter-backend/pkg/db"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"github.com/hooterhq/hooter-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "whsec_test"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Brand{},
		&models.Store{},
		&models.Product{},
		&models.ProductVariant{},
		&models.RemoteMapping{},
		&models.InventoryRecord{},
		&models.ChangeLogEntry{},
	))
	return conn
}

type fakeReplayStore struct {
	keys map[string]bool
}

func newFakeReplayStore() *fakeReplayStore {
	return &fakeReplayStore{keys: map[string]bool{}}
}

func (f *fakeReplayStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeReplayStore) WebhookKey(topic, id string) string {
	return "test:webhook:" + topic + ":" + id
}

func (f *fakeReplayStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

type fixture struct {
	rec        *Reconciler
	conn       *gorm.DB
	brandID    uuid.UUID
	productUID uuid.UUID
	variantID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := newTestDB(t)

	brand := &models.Brand{ID: uuid.New(), Name: "Hooter", OwnerUserID: uuid.New()}
	require.NoError(t, conn.Create(brand).Error)

	store := &models.Store{
		ID:             uuid.New(),
		BrandID:        brand.ID,
		ShopDomain:     "hooter.myshopify.com",
		EncryptedToken: "sealed",
	}
	require.NoError(t, conn.Create(store).Error)

	description := "100% cotton"
	product := &models.Product{
		UID:      uuid.New(),
		BrandID:  brand.ID,
		Title:    "Red T-Shirt",
		BodyHTML: &description,
		Status:   enums.ProductStatusActive,
	}
	require.NoError(t, conn.Create(product).Error)

	inventoryItemID := "gid://shopify/InventoryItem/900"
	remoteVariantID := "gid://shopify/ProductVariant/800"
	variant := &models.ProductVariant{
		ID:              uuid.New(),
		ProductUID:      product.UID,
		SKU:             "RT-001",
		Price:           decimal.RequireFromString("19.99"),
		RemoteVariantID: &remoteVariantID,
		InventoryItemID: &inventoryItemID,
	}
	require.NoError(t, conn.Create(variant).Error)

	syncedAt := time.Now().UTC()
	require.NoError(t, conn.Create(&models.RemoteMapping{
		ID:              uuid.New(),
		ProductUID:      product.UID,
		StoreID:         store.ID,
		RemoteProductID: "gid://shopify/Product/700",
		SyncStatus:      enums.SyncStatusSuccess,
		LastSyncedAt:    &syncedAt,
	}).Error)

	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("fatal")})
	rec, err := NewReconciler(
		products.NewRepository(conn),
		db.NewFromConn(conn),
		audit.NewRecorder(conn),
		newFakeReplayStore(),
		testSecret,
		logg,
	)
	require.NoError(t, err)

	return &fixture{rec: rec, conn: conn, brandID: brand.ID, productUID: product.UID, variantID: variant.ID}
}

func changeLogCount(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(&models.ChangeLogEntry{}).Count(&count).Error)
	return count
}

func TestProductUpdatePatchesLocalMirror(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"id":700,"title":"Red T-Shirt V2","vendor":"Hooter","tags":"apparel, summer"}`)

	outcome, err := f.rec.HandleProductUpdate(context.Background(), body, Sign(testSecret, body))
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)

	var product models.Product
	require.NoError(t, f.conn.First(&product, "uid = ?", f.productUID).Error)
	require.Equal(t, "Red T-Shirt V2", product.Title)
	require.Equal(t, "apparel,summer", product.Tags)
	require.NotNil(t, product.Vendor)
	require.Equal(t, "Hooter", *product.Vendor)

	var entry models.ChangeLogEntry
	require.NoError(t, f.conn.First(&entry, "product_uid = ?", f.productUID).Error)
	require.Equal(t, enums.AuditSourceWebhook, entry.Source)
	require.Nil(t, entry.ActorUserID)
}

func TestProductUpdateRejectsBadSignatureWithoutWrites(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"id":700,"title":"Evil Title"}`)

	before := changeLogCount(t, f.conn)
	_, err := f.rec.HandleProductUpdate(context.Background(), body, Sign("wrong-secret", body))
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	require.Equal(t, pkgerrors.CodeUnauthorized, domainErr.Code())
	require.Equal(t, before, changeLogCount(t, f.conn))

	var product models.Product
	require.NoError(t, f.conn.First(&product, "uid = ?", f.productUID).Error)
	require.Equal(t, "Red T-Shirt", product.Title)
}

func TestProductUpdateFailsClosedWithoutSecret(t *testing.T) {
	f := newFixture(t)
	rec, err := NewReconciler(
		products.NewRepository(f.conn),
		db.NewFromConn(f.conn),
		audit.NewRecorder(f.conn),
		nil,
		"",
		logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("fatal")}),
	)
	require.NoError(t, err)

	body := []byte(`{"id":700,"title":"X"}`)
	_, err = rec.HandleProductUpdate(context.Background(), body, Sign("", body))
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	require.Equal(t, pkgerrors.CodeUnauthorized, domainErr.Code())
}

func TestProductUpdateUnknownRemoteIDIsNoOp(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"id":99999,"title":"Ghost Product"}`)

	before := changeLogCount(t, f.conn)
	outcome, err := f.rec.HandleProductUpdate(context.Background(), body, Sign(testSecret, body))
	require.NoError(t, err)
	require.Equal(t, OutcomeIgnored, outcome)
	require.Equal(t, before, changeLogCount(t, f.conn))
}

func TestProductUpdateReplayIsIgnored(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"id":700,"title":"Replayed Title"}`)
	signature := Sign(testSecret, body)

	outcome, err := f.rec.HandleProductUpdate(context.Background(), body, signature)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)

	outcome, err = f.rec.HandleProductUpdate(context.Background(), body, signature)
	require.NoError(t, err)
	require.Equal(t, OutcomeIgnored, outcome)
	require.EqualValues(t, 1, changeLogCount(t, f.conn))
}

func TestInventoryUpdateUpsertsRecord(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"inventory_item_id":900,"location_id":1,"available":42}`)

	outcome, err := f.rec.HandleInventoryUpdate(context.Background(), body, Sign(testSecret, body))
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)

	var record models.InventoryRecord
	require.NoError(t, f.conn.First(&record, "variant_id = ?", f.variantID).Error)
	require.Equal(t, 42, record.Quantity)
	require.Equal(t, "gid://shopify/Location/1", record.LocationID)
	require.Equal(t, enums.InventorySyncStatusInSync, record.Status)

	var entry models.ChangeLogEntry
	require.NoError(t, f.conn.First(&entry).Error)
	require.Equal(t, enums.AuditActionInventory, entry.Action)
	require.Equal(t, enums.AuditSourceWebhook, entry.Source)
}

func TestInventoryUpdateUnknownItemIsNoOp(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"inventory_item_id":12345,"location_id":1,"available":5}`)

	outcome, err := f.rec.HandleInventoryUpdate(context.Background(), body, Sign(testSecret, body))
	require.NoError(t, err)
	require.Equal(t, OutcomeIgnored, outcome)

	var count int64
	require.NoError(t, f.conn.Model(&models.InventoryRecord{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestVerifySignatureAcceptsHexAndBase64(t *testing.T) {
	body := []byte(`{"id":1}`)
	hexSig := Sign(testSecret, body)
	require.NoError(t, VerifySignature(testSecret, body, hexSig))

	raw, err := hex.DecodeString(hexSig)
	require.NoError(t, err)
	require.NoError(t, VerifySignature(testSecret, body, base64.StdEncoding.EncodeToString(raw)))

	require.Error(t, VerifySignature(testSecret, body, "not-a-signature"))
	require.Error(t, VerifySignature(testSecret, []byte(`{"id":2}`), Sign(testSecret, body)))
}

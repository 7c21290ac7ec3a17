package idempotency

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.IdempotencyRecord{}))
	return conn
}

func TestSaveThenLookupReturnsStoredBody(t *testing.T) {
	store := NewStore(newTestDB(t))
	ctx := context.Background()
	userID := uuid.New()
	scope := ProductCreateScope(uuid.New())

	require.NoError(t, store.Save(ctx, "key-1", userID, scope, `{"uid":"abc"}`))

	record, err := store.Lookup(ctx, "key-1", userID, scope)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, `{"uid":"abc"}`, record.ResponseBody)
}

func TestLookupMissScopesByUserAndScope(t *testing.T) {
	store := NewStore(newTestDB(t))
	ctx := context.Background()
	userID := uuid.New()
	brandID := uuid.New()

	require.NoError(t, store.Save(ctx, "key-1", userID, ProductCreateScope(brandID), "{}"))

	record, err := store.Lookup(ctx, "key-1", uuid.New(), ProductCreateScope(brandID))
	require.NoError(t, err)
	require.Nil(t, record)

	record, err = store.Lookup(ctx, "key-1", userID, ProductCreateScope(uuid.New()))
	require.NoError(t, err)
	require.Nil(t, record)

	record, err = store.Lookup(ctx, "key-1", userID, ProductBulkScope(brandID))
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestSaveDuplicateIsSilentAndFirstWriteWins(t *testing.T) {
	store := NewStore(newTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	scope := ProductCreateScope(uuid.New())
	require.NoError(t, store.Save(ctx, "key-1", userID, scope, "first"))
	require.NoError(t, store.Save(ctx, "key-1", userID, scope, "second"))

	record, err := store.Lookup(ctx, "key-1", userID, scope)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, "first", record.ResponseBody)
}

func TestValidateKey(t *testing.T) {
	require.Error(t, ValidateKey(""))
	require.Error(t, ValidateKey("   "))
	require.Error(t, ValidateKey(strings.Repeat("k", 256)))
	require.NoError(t, ValidateKey("order-2026-09-01-0001"))
}

package audit

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.ChangeLogEntry{}))
	return conn
}

func TestRecordPersistsEntry(t *testing.T) {
	db := newTestDB(t)
	recorder := NewRecorder(db)

	brandID := uuid.New()
	productUID := uuid.New()
	actor := uuid.New()

	err := recorder.Record(context.Background(), Entry{
		BrandID:     brandID,
		ProductUID:  &productUID,
		Action:      enums.AuditActionCreate,
		Source:      enums.AuditSourceAPI,
		ActorUserID: &actor,
		Payload:     map[string]string{"title": "Night Owl Hoodie"},
	})
	require.NoError(t, err)

	var row models.ChangeLogEntry
	require.NoError(t, db.First(&row, "brand_id = ?", brandID).Error)
	require.Equal(t, enums.AuditActionCreate, row.Action)
	require.Equal(t, enums.AuditSourceAPI, row.Source)
	require.NotNil(t, row.ProductUID)
	require.Equal(t, productUID, *row.ProductUID)
	require.Contains(t, row.Payload, "Night Owl Hoodie")
}

func TestRecordWebhookEntryHasNoActor(t *testing.T) {
	db := newTestDB(t)
	recorder := NewRecorder(db)

	err := recorder.Record(context.Background(), Entry{
		BrandID: uuid.New(),
		Action:  enums.AuditActionUpdate,
		Source:  enums.AuditSourceWebhook,
	})
	require.NoError(t, err)

	var row models.ChangeLogEntry
	require.NoError(t, db.First(&row).Error)
	require.Nil(t, row.ActorUserID)
	require.Equal(t, "{}", row.Payload)
}

func TestRecordRejectsInvalidAction(t *testing.T) {
	recorder := NewRecorder(newTestDB(t))

	err := recorder.Record(context.Background(), Entry{
		BrandID: uuid.New(),
		Action:  enums.AuditAction("YEET"),
		Source:  enums.AuditSourceAPI,
	})
	require.Error(t, err)
}

func TestListByProductOrdersNewestFirst(t *testing.T) {
	db := newTestDB(t)
	recorder := NewRecorder(db)
	productUID := uuid.New()
	brandID := uuid.New()

	for _, action := range []enums.AuditAction{enums.AuditActionCreate, enums.AuditActionUpdate} {
		require.NoError(t, recorder.Record(context.Background(), Entry{
			BrandID:    brandID,
			ProductUID: &productUID,
			Action:     action,
			Source:     enums.AuditSourceAPI,
		}))
	}

	rows, err := recorder.ListByProduct(context.Background(), productUID, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

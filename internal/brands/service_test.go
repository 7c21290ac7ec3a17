package brands

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/internal/audit"
	"github.com/hooterhq/hooter-backend/pkg/db"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Brand{},
		&models.BrandAccess{},
		&models.ChangeLogEntry{},
	))
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo, NewGuard(repo), db.NewFromConn(conn), audit.NewRecorder(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestCreateBrandGrantsOwnerAccess(t *testing.T) {
	svc, conn := newTestService(t)
	owner := uuid.New()

	dto, err := svc.CreateBrand(context.Background(), owner, CreateBrandInput{Name: "  Hooter Supply Co  "})
	require.NoError(t, err)
	require.Equal(t, "Hooter Supply Co", dto.Name)
	require.Equal(t, owner, dto.OwnerUserID)

	var access models.BrandAccess
	require.NoError(t, conn.First(&access, "brand_id = ?", dto.ID).Error)
	require.Equal(t, enums.BrandRoleOwner, access.Role)

	var entry models.ChangeLogEntry
	require.NoError(t, conn.First(&entry, "brand_id = ?", dto.ID).Error)
	require.Equal(t, enums.AuditActionCreate, entry.Action)
}

func TestCreateBrandRejectsEmptyName(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateBrand(context.Background(), uuid.New(), CreateBrandInput{Name: "   "})
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	require.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestGetBrandDeniesOutsiders(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()

	dto, err := svc.CreateBrand(context.Background(), owner, CreateBrandInput{Name: "Hooter"})
	require.NoError(t, err)

	_, err = svc.GetBrand(context.Background(), uuid.New(), dto.ID)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	require.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())

	got, err := svc.GetBrand(context.Background(), owner, dto.ID)
	require.NoError(t, err)
	require.Equal(t, dto.ID, got.ID)
}

func TestGuardTreatsMissingBrandAsForbidden(t *testing.T) {
	_, conn := newTestService(t)
	guard := NewGuard(NewRepository(conn))

	err := guard.Verify(context.Background(), uuid.New(), uuid.New())
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	require.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())
}

func TestGrantAccessOwnerOnly(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	editor := uuid.New()

	dto, err := svc.CreateBrand(context.Background(), owner, CreateBrandInput{Name: "Hooter"})
	require.NoError(t, err)

	err = svc.GrantAccess(context.Background(), editor, dto.ID, GrantAccessInput{UserID: editor, Role: enums.BrandRoleEditor})
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	require.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())

	require.NoError(t, svc.GrantAccess(context.Background(), owner, dto.ID, GrantAccessInput{UserID: editor, Role: enums.BrandRoleEditor}))

	_, err = svc.GetBrand(context.Background(), editor, dto.ID)
	require.NoError(t, err)

	err = svc.GrantAccess(context.Background(), editor, dto.ID, GrantAccessInput{UserID: uuid.New(), Role: enums.BrandRoleEditor})
	domainErr = pkgerrors.As(err)
	require.NotNil(t, domainErr)
	require.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())
}

func TestRevokeAccessRemovesEditor(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	editor := uuid.New()

	dto, err := svc.CreateBrand(context.Background(), owner, CreateBrandInput{Name: "Hooter"})
	require.NoError(t, err)
	require.NoError(t, svc.GrantAccess(context.Background(), owner, dto.ID, GrantAccessInput{UserID: editor, Role: enums.BrandRoleEditor}))

	err = svc.RevokeAccess(context.Background(), editor, dto.ID, owner)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	require.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())

	err = svc.RevokeAccess(context.Background(), owner, dto.ID, owner)
	domainErr = pkgerrors.As(err)
	require.NotNil(t, domainErr)
	require.Equal(t, pkgerrors.CodeValidation, domainErr.Code())

	require.NoError(t, svc.RevokeAccess(context.Background(), owner, dto.ID, editor))

	_, err = svc.GetBrand(context.Background(), editor, dto.ID)
	domainErr = pkgerrors.As(err)
	require.NotNil(t, domainErr)
	require.Equal(t, pkgerrors.CodeForbidden, domainErr.Code())
}

func TestListBrandsOnlyReturnsAccessible(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()

	_, err := svc.CreateBrand(context.Background(), owner, CreateBrandInput{Name: "Mine"})
	require.NoError(t, err)
	_, err = svc.CreateBrand(context.Background(), uuid.New(), CreateBrandInput{Name: "Theirs"})
	require.NoError(t, err)

	rows, err := svc.ListBrands(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Mine", rows[0].Name)
}

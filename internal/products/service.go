package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/internal/audit"
	"github.com/hooterhq/hooter-backend/internal/brands"
	"github.com/hooterhq/hooter-backend/internal/idempotency"
	"github.com/hooterhq/hooter-backend/internal/stores"
	"github.com/hooterhq/hooter-backend/pkg/db"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"github.com/hooterhq/hooter-backend/pkg/logger"
	"github.com/hooterhq/hooter-backend/pkg/metrics"
	"github.com/hooterhq/hooter-backend/pkg/pagination"
	"github.com/hooterhq/hooter-backend/pkg/retry"
	"github.com/hooterhq/hooter-backend/pkg/shopify"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	opProductCreate = "product_create"
	opProductUpdate = "product_update"
	opProductDelete = "product_delete"
	opVariantUpdate = "variant_update"
	opInventorySync = "inventory_sync"

	maxBulkItems = 100

	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

// Service exposes the catalogue synchronization operations.
type Service interface {
	CreateProduct(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*CreateProductResult, error)
	BulkCreateProducts(ctx context.Context, userID uuid.UUID, idempotencyKey string, inputs []CreateProductInput) ([]BulkItemResult, error)
	GetProduct(ctx context.Context, userID, brandID, uid uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, userID uuid.UUID, input ListProductsInput) (*ProductListResult, error)
	UpdateProduct(ctx context.Context, userID, brandID, uid uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	UpdateVariantPricing(ctx context.Context, userID, brandID, uid, variantID uuid.UUID, input VariantPricingInput) (*VariantDTO, error)
	ProductHistory(ctx context.Context, userID, brandID, uid uuid.UUID, limit int) ([]ChangeLogDTO, error)
	DeleteProduct(ctx context.Context, userID, brandID, uid uuid.UUID, soft bool) error
	SyncInventory(ctx context.Context, userID, brandID, uid uuid.UUID, input InventorySyncInput) (*InventorySyncResult, error)
}

// CredentialSource opens the API credentials for a connected store.
type CredentialSource interface {
	Credentials(ctx context.Context, store *models.Store) (shopify.Credentials, error)
}

type service struct {
	repo      *Repository
	storeRepo *stores.Repository
	creds     CredentialSource
	shops     stores.ShopClientFactory
	guard     brands.AccessChecker
	dbClient  *db.Client
	idem      *idempotency.Store
	auditor   *audit.Recorder
	retryCfg  retry.Config
	sync      *metrics.SyncMetrics
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs the catalogue synchronization service.
func NewService(
	repo *Repository,
	storeRepo *stores.Repository,
	creds CredentialSource,
	shops stores.ShopClientFactory,
	guard brands.AccessChecker,
	dbClient *db.Client,
	idem *idempotency.Store,
	auditor *audit.Recorder,
	retryCfg retry.Config,
	syncMetrics *metrics.SyncMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if storeRepo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if creds == nil {
		return nil, fmt.Errorf("credential source required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop client factory required")
	}
	if guard == nil {
		return nil, fmt.Errorf("brand guard required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if idem == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		storeRepo: storeRepo,
		creds:     creds,
		shops:     shops,
		guard:     guard,
		dbClient:  dbClient,
		idem:      idem,
		auditor:   auditor,
		retryCfg:  retryCfg,
		sync:      syncMetrics,
		logg:      logg,
		now:       time.Now,
	}, nil
}

// CreateProduct drives a local catalogue entry through the remote platform:
// validate, authorize, create remotely, attach media, then persist the local
// mirror and mapping in one transaction. Remote creation always precedes the
// local write so a failure can only leave a remote product without a local
// row, never a local row pointing at nothing.
func (s *service) CreateProduct(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*CreateProductResult, error) {
	started := s.now()

	result, err := s.createProduct(ctx, userID, input)
	if err != nil {
		// A replayed key is not a sync failure.
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeIdempotency {
			s.sync.IncFailure(opProductCreate)
		}
		return nil, err
	}
	s.sync.IncSuccess(opProductCreate)
	s.sync.ObserveDuration(opProductCreate, s.now().Sub(started))
	return result, nil
}

func (s *service) createProduct(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*CreateProductResult, error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	if err := s.guard.Verify(ctx, input.BrandID, userID); err != nil {
		return nil, err
	}
	store, err := s.loadBrandStore(ctx, input.BrandID, input.StoreID)
	if err != nil {
		return nil, err
	}

	if input.IdempotencyKey != "" {
		if err := idempotency.ValidateKey(input.IdempotencyKey); err != nil {
			return nil, err
		}
		scope := idempotency.ProductCreateScope(input.BrandID)
		stored, err := s.idem.Lookup(ctx, input.IdempotencyKey, userID, scope)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency lookup")
		}
		if stored != nil {
			var replay CreateProductResult
			if err := json.Unmarshal([]byte(stored.ResponseBody), &replay); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode stored idempotency response")
			}
			s.logg.Debug(ctx, "idempotency key replayed")
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key already used").
				WithDetails(replay)
		}
	}

	client, err := s.clientFor(ctx, store)
	if err != nil {
		return nil, err
	}

	// Every image URL is probed before anything is written anywhere.
	for _, image := range input.Images {
		if err := client.ValidateImageURL(ctx, image.SourceURL); err != nil {
			if typed := pkgerrors.As(err); typed != nil {
				return nil, typed.WithDetails(map[string]string{"source_url": image.SourceURL})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image url unreachable").
				WithDetails(map[string]string{"source_url": image.SourceURL})
		}
	}

	var remote *shopify.RemoteProduct
	err = s.remoteExec(ctx, opProductCreate, func(ctx context.Context) error {
		created, err := client.CreateProduct(ctx, buildRemoteInput(input))
		if err != nil {
			return err
		}
		remote = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	mediaIDs, failedImages := s.uploadMedia(ctx, client, remote.ID, input.Images)
	if len(mediaIDs) > 1 {
		if err := s.remoteExec(ctx, opProductCreate, func(ctx context.Context) error {
			return client.ReorderProductMedia(ctx, remote.ID, mediaIDs)
		}); err != nil {
			// The product and its media exist remotely; only their order is
			// off. Not worth failing the whole creation.
			s.logg.Warn(s.logg.WithField(ctx, "remote_product_id", remote.ID), "media reorder failed")
		}
	}

	uid := uuid.New()
	product := buildProductModel(uid, input, remote)
	attachMediaIdentity(product, mediaIDs, failedImages)

	syncedAt := s.now().UTC()
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.CreateGraph(ctx, product); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist product mirror")
		}
		if err := txRepo.UpsertMapping(ctx, uid, store.ID, remote.ID, enums.SyncStatusSuccess, syncedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist remote mapping")
		}
		return s.auditor.WithTx(tx).Record(ctx, audit.Entry{
			BrandID:     input.BrandID,
			ProductUID:  &uid,
			Action:      enums.AuditActionCreate,
			Source:      enums.AuditSourceAPI,
			ActorUserID: &userID,
			Payload: map[string]any{
				"remote_product_id": remote.ID,
				"images_count":      len(mediaIDs),
			},
		})
	})
	if err != nil {
		// The remote product exists but the mirror write failed. Surfaced
		// loudly for operator reconciliation; no remote rollback is attempted.
		ctx = s.logg.WithField(ctx, "remote_product_id", remote.ID)
		s.logg.Error(ctx, "remote product created but local persistence failed", err)
		return nil, err
	}

	result := &CreateProductResult{
		UID:             uid,
		RemoteProductID: remote.ID,
		ImagesCount:     len(mediaIDs),
		Status:          product.Status.String(),
		FailedImages:    failedImages,
	}

	if input.IdempotencyKey != "" {
		body, err := json.Marshal(result)
		if err == nil {
			err = s.idem.Save(ctx, input.IdempotencyKey, userID, idempotency.ProductCreateScope(input.BrandID), string(body))
		}
		if err != nil {
			s.logg.Error(ctx, "store idempotency response", err)
		}
	}

	return result, nil
}

// BulkCreateProducts processes items sequentially. One item's failure does
// not stop the rest; each slot reports its own outcome.
func (s *service) BulkCreateProducts(ctx context.Context, userID uuid.UUID, idempotencyKey string, inputs []CreateProductInput) ([]BulkItemResult, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bulk request must contain at least one product")
	}
	if len(inputs) > maxBulkItems {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("bulk request is limited to %d products", maxBulkItems))
	}

	bulkScope := idempotency.ProductBulkScope(inputs[0].BrandID)
	if idempotencyKey != "" {
		if err := idempotency.ValidateKey(idempotencyKey); err != nil {
			return nil, err
		}
		stored, err := s.idem.Lookup(ctx, idempotencyKey, userID, bulkScope)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency lookup")
		}
		if stored != nil {
			var replay []BulkItemResult
			if err := json.Unmarshal([]byte(stored.ResponseBody), &replay); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode stored idempotency response")
			}
			return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key already used").
				WithDetails(replay)
		}
	}

	results := make([]BulkItemResult, 0, len(inputs))
	for i, input := range inputs {
		input.IdempotencyKey = ""
		item := BulkItemResult{Index: i}
		result, err := s.CreateProduct(ctx, userID, input)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Result = result
		}
		results = append(results, item)
	}

	if idempotencyKey != "" {
		body, err := json.Marshal(results)
		if err == nil {
			err = s.idem.Save(ctx, idempotencyKey, userID, bulkScope, string(body))
		}
		if err != nil {
			s.logg.Error(ctx, "store idempotency response", err)
		}
	}

	return results, nil
}

func (s *service) GetProduct(ctx context.Context, userID, brandID, uid uuid.UUID) (*ProductDTO, error) {
	if err := s.guard.Verify(ctx, brandID, userID); err != nil {
		return nil, err
	}
	product, err := s.loadProduct(ctx, brandID, uid)
	if err != nil {
		return nil, err
	}
	return toProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, userID uuid.UUID, input ListProductsInput) (*ProductListResult, error) {
	if err := s.guard.Verify(ctx, input.BrandID, userID); err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status filter")
	}
	if input.Offset < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offset must not be negative")
	}

	rows, total, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toProductDTO(&rows[i]))
	}
	return &ProductListResult{
		Products: out,
		Total:    total,
		Limit:    pagination.NormalizeLimit(input.Limit),
		Offset:   pagination.NormalizeOffset(input.Offset),
	}, nil
}

// UpdateProduct patches the allow-listed columns and pushes the same change
// to every store the product is mapped to.
func (s *service) UpdateProduct(ctx context.Context, userID, brandID, uid uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	started := s.now()

	if err := s.guard.Verify(ctx, brandID, userID); err != nil {
		return nil, err
	}
	if _, err := s.loadProduct(ctx, brandID, uid); err != nil {
		return nil, err
	}

	columns, remoteUpdate, err := buildUpdate(input)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updatable fields supplied")
	}

	if err := s.forEachMapping(ctx, uid, func(ctx context.Context, client shopify.API, mapping *models.RemoteMapping) error {
		return s.remoteExec(ctx, opProductUpdate, func(ctx context.Context) error {
			return client.UpdateProduct(ctx, mapping.RemoteProductID, remoteUpdate)
		})
	}); err != nil {
		s.sync.IncFailure(opProductUpdate)
		return nil, err
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateColumns(ctx, uid, columns); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
		}
		return s.auditor.WithTx(tx).Record(ctx, audit.Entry{
			BrandID:     brandID,
			ProductUID:  &uid,
			Action:      enums.AuditActionUpdate,
			Source:      enums.AuditSourceAPI,
			ActorUserID: &userID,
			Payload:     columnNames(columns),
		})
	})
	if err != nil {
		s.sync.IncFailure(opProductUpdate)
		return nil, err
	}

	s.sync.IncSuccess(opProductUpdate)
	s.sync.ObserveDuration(opProductUpdate, s.now().Sub(started))

	product, err := s.loadProduct(ctx, brandID, uid)
	if err != nil {
		return nil, err
	}
	return toProductDTO(product), nil
}

// UpdateVariantPricing patches one variant's price fields locally and on
// every store the product is mapped to.
func (s *service) UpdateVariantPricing(ctx context.Context, userID, brandID, uid, variantID uuid.UUID, input VariantPricingInput) (*VariantDTO, error) {
	started := s.now()

	if err := s.guard.Verify(ctx, brandID, userID); err != nil {
		return nil, err
	}
	product, err := s.loadProduct(ctx, brandID, uid)
	if err != nil {
		return nil, err
	}

	var variant *models.ProductVariant
	for i := range product.Variants {
		if product.Variants[i].ID == variantID {
			variant = &product.Variants[i]
			break
		}
	}
	if variant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}

	if input.Price == nil && input.CompareAtPrice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no pricing fields supplied")
	}
	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}

	columns := map[string]any{}
	remoteUpdate := shopify.VariantUpdate{}
	if input.Price != nil {
		columns["price"] = *input.Price
		price := input.Price.StringFixed(2)
		remoteUpdate.Price = &price
	}
	if input.CompareAtPrice != nil {
		columns["compare_at_price"] = *input.CompareAtPrice
		compareAt := input.CompareAtPrice.StringFixed(2)
		remoteUpdate.CompareAtPrice = &compareAt
	}

	if variant.RemoteVariantID != nil {
		if err := s.forEachMapping(ctx, uid, func(ctx context.Context, client shopify.API, mapping *models.RemoteMapping) error {
			return s.remoteExec(ctx, opVariantUpdate, func(ctx context.Context) error {
				return client.UpdateVariant(ctx, mapping.RemoteProductID, *variant.RemoteVariantID, remoteUpdate)
			})
		}); err != nil {
			s.sync.IncFailure(opVariantUpdate)
			return nil, err
		}
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateVariantColumns(ctx, variantID, columns); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update variant")
		}
		// The first variant backs the flattened listing columns.
		if variant.Position == 0 {
			if err := txRepo.UpdateColumns(ctx, uid, columns); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing columns")
			}
		}
		return s.auditor.WithTx(tx).Record(ctx, audit.Entry{
			BrandID:     brandID,
			ProductUID:  &uid,
			Action:      enums.AuditActionUpdate,
			Source:      enums.AuditSourceAPI,
			ActorUserID: &userID,
			Payload:     map[string]string{"variant_id": variantID.String(), "fields": "pricing"},
		})
	})
	if err != nil {
		s.sync.IncFailure(opVariantUpdate)
		return nil, err
	}

	s.sync.IncSuccess(opVariantUpdate)
	s.sync.ObserveDuration(opVariantUpdate, s.now().Sub(started))

	product, err = s.loadProduct(ctx, brandID, uid)
	if err != nil {
		return nil, err
	}
	for _, v := range toProductDTO(product).Variants {
		if v.ID == variantID {
			dto := v
			return &dto, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "variant missing after update")
}

// ProductHistory returns the product's change log, newest first.
func (s *service) ProductHistory(ctx context.Context, userID, brandID, uid uuid.UUID, limit int) ([]ChangeLogDTO, error) {
	if err := s.guard.Verify(ctx, brandID, userID); err != nil {
		return nil, err
	}
	if _, err := s.loadProduct(ctx, brandID, uid); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := s.auditor.ListByProduct(ctx, uid, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list change history")
	}

	out := make([]ChangeLogDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ChangeLogDTO{
			ID:          row.ID,
			Action:      row.Action.String(),
			Source:      row.Source.String(),
			ActorUserID: row.ActorUserID,
			Payload:     json.RawMessage(row.Payload),
			CreatedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

// DeleteProduct removes the product from every mapped store, then archives
// the local row. A hard delete removes the row set instead.
func (s *service) DeleteProduct(ctx context.Context, userID, brandID, uid uuid.UUID, soft bool) error {
	started := s.now()

	if err := s.guard.Verify(ctx, brandID, userID); err != nil {
		return err
	}
	if _, err := s.loadProduct(ctx, brandID, uid); err != nil {
		return err
	}

	if err := s.forEachMapping(ctx, uid, func(ctx context.Context, client shopify.API, mapping *models.RemoteMapping) error {
		return s.remoteExec(ctx, opProductDelete, func(ctx context.Context) error {
			return client.DeleteProduct(ctx, mapping.RemoteProductID)
		})
	}); err != nil {
		s.sync.IncFailure(opProductDelete)
		return err
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if soft {
			if err := txRepo.UpdateColumns(ctx, uid, map[string]any{"status": enums.ProductStatusArchived}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "archive product")
			}
		} else {
			if err := txRepo.DeleteProductGraph(ctx, uid); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
			}
		}
		return s.auditor.WithTx(tx).Record(ctx, audit.Entry{
			BrandID:     brandID,
			ProductUID:  &uid,
			Action:      enums.AuditActionDelete,
			Source:      enums.AuditSourceAPI,
			ActorUserID: &userID,
			Payload:     map[string]bool{"soft": soft},
		})
	})
	if err != nil {
		s.sync.IncFailure(opProductDelete)
		return err
	}

	s.sync.IncSuccess(opProductDelete)
	s.sync.ObserveDuration(opProductDelete, s.now().Sub(started))
	return nil
}

// SyncInventory activates tracking and pushes quantities for every synced
// variant at the store's first fulfillment location.
func (s *service) SyncInventory(ctx context.Context, userID, brandID, uid uuid.UUID, input InventorySyncInput) (*InventorySyncResult, error) {
	started := s.now()

	if err := s.guard.Verify(ctx, brandID, userID); err != nil {
		return nil, err
	}
	product, err := s.loadProduct(ctx, brandID, uid)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindMapping(ctx, uid, input.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product has not been synced to this store")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load remote mapping")
	}

	store, err := s.loadBrandStore(ctx, brandID, input.StoreID)
	if err != nil {
		return nil, err
	}
	client, err := s.clientFor(ctx, store)
	if err != nil {
		return nil, err
	}

	var locations []shopify.Location
	err = s.remoteExec(ctx, opInventorySync, func(ctx context.Context) error {
		found, err := client.ListLocations(ctx)
		if err != nil {
			return err
		}
		locations = found
		return nil
	})
	if err != nil {
		s.sync.IncFailure(opInventorySync)
		return nil, err
	}
	if len(locations) == 0 {
		s.sync.IncFailure(opInventorySync)
		return nil, pkgerrors.New(pkgerrors.CodeRemoteAPI, "store has no fulfillment locations")
	}
	// First returned location is the sync target. Multi-location merchants
	// are out of scope for now.
	location := locations[0]

	synced := 0
	for i := range product.Variants {
		variant := &product.Variants[i]
		if variant.InventoryItemID == nil || *variant.InventoryItemID == "" {
			continue
		}
		quantity := input.Quantities[variant.ID]

		err = s.remoteExec(ctx, opInventorySync, func(ctx context.Context) error {
			return client.ActivateInventory(ctx, *variant.InventoryItemID, location.ID)
		})
		if err != nil {
			s.sync.IncFailure(opInventorySync)
			return nil, err
		}
		err = s.remoteExec(ctx, opInventorySync, func(ctx context.Context) error {
			return client.SetInventoryQuantity(ctx, *variant.InventoryItemID, location.ID, quantity)
		})
		if err != nil {
			s.sync.IncFailure(opInventorySync)
			return nil, err
		}

		if err := s.repo.UpsertInventoryRecord(ctx, variant.ID, location.ID, quantity, enums.InventorySyncStatusInSync, s.now().UTC()); err != nil {
			s.sync.IncFailure(opInventorySync)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist inventory record")
		}
		synced++
	}

	s.auditor.RecordBestEffort(ctx, s.logg, audit.Entry{
		BrandID:     brandID,
		ProductUID:  &uid,
		Action:      enums.AuditActionInventory,
		Source:      enums.AuditSourceAPI,
		ActorUserID: &userID,
		Payload: map[string]any{
			"location_id":     location.ID,
			"variants_synced": synced,
		},
	})

	s.sync.IncSuccess(opInventorySync)
	s.sync.ObserveDuration(opInventorySync, s.now().Sub(started))
	return &InventorySyncResult{LocationID: location.ID, VariantsSynced: synced}, nil
}

// uploadMedia attaches images concurrently and joins before returning. The
// returned media ids are sorted by position ascending with input order
// breaking ties, ready for the reorder call. Failed uploads are reported by
// source URL, not retried at this level beyond the per-call budget.
func (s *service) uploadMedia(ctx context.Context, client shopify.API, remoteProductID string, images []ImageInput) ([]string, []string) {
	if len(images) == 0 {
		return nil, nil
	}

	type uploaded struct {
		mediaID  string
		position int
		order    int
	}

	results := make([]*uploaded, len(images))
	failures := make([]error, len(images))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, image := range images {
		group.Go(func() error {
			var mediaID string
			err := s.remoteExec(groupCtx, opProductCreate, func(ctx context.Context) error {
				alt := ""
				if image.AltText != nil {
					alt = *image.AltText
				}
				id, err := client.CreateProductMedia(ctx, remoteProductID, shopify.MediaInput{
					SourceURL: image.SourceURL,
					AltText:   alt,
				})
				if err != nil {
					return err
				}
				mediaID = id
				return nil
			})
			if err != nil {
				failures[i] = err
				return nil
			}
			results[i] = &uploaded{mediaID: mediaID, position: image.Position, order: i}
			return nil
		})
	}
	_ = group.Wait()

	ok := make([]*uploaded, 0, len(images))
	var failed []string
	for i := range images {
		if results[i] != nil {
			ok = append(ok, results[i])
			continue
		}
		failed = append(failed, images[i].SourceURL)
		ctx := s.logg.WithField(ctx, "source_url", images[i].SourceURL)
		s.logg.Error(ctx, "media upload failed", failures[i])
	}

	sort.SliceStable(ok, func(a, b int) bool {
		if ok[a].position != ok[b].position {
			return ok[a].position < ok[b].position
		}
		return ok[a].order < ok[b].order
	})

	mediaIDs := make([]string, 0, len(ok))
	for _, item := range ok {
		mediaIDs = append(mediaIDs, item.mediaID)
	}
	return mediaIDs, failed
}

func (s *service) remoteExec(ctx context.Context, operation string, op func(ctx context.Context) error) error {
	exec := retry.New(s.retryCfg, retry.WithOnRetry(func(attempt int, err error) {
		s.sync.IncRetry(operation)
		retryCtx := s.logg.WithFields(ctx, map[string]any{
			"operation": operation,
			"attempt":   attempt,
		})
		s.logg.Warn(retryCtx, "transient remote failure, retrying")
	}))
	return exec.Do(ctx, op)
}

func (s *service) clientFor(ctx context.Context, store *models.Store) (shopify.API, error) {
	creds, err := s.creds.Credentials(ctx, store)
	if err != nil {
		return nil, err
	}
	client, err := s.shops.ForShop(creds)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build shop client")
	}
	return client, nil
}

func (s *service) loadBrandStore(ctx context.Context, brandID, storeID uuid.UUID) (*models.Store, error) {
	store, err := s.storeRepo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.BrandID != brandID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store does not belong to this brand")
	}
	return store, nil
}

func (s *service) loadProduct(ctx context.Context, brandID, uid uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByUID(ctx, brandID, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) forEachMapping(ctx context.Context, uid uuid.UUID, fn func(ctx context.Context, client shopify.API, mapping *models.RemoteMapping) error) error {
	mappings, err := s.repo.ListMappingsByProduct(ctx, uid)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list remote mappings")
	}
	for i := range mappings {
		mapping := &mappings[i]
		store, err := s.storeRepo.FindByID(ctx, mapping.StoreID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Store was disconnected; nothing remote to touch.
				continue
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load mapped store")
		}
		client, err := s.clientFor(ctx, store)
		if err != nil {
			return err
		}
		if err := fn(ctx, client, mapping); err != nil {
			return err
		}
	}
	return nil
}

func validateCreateInput(input *CreateProductInput) error {
	fields := map[string]string{}
	if strings.TrimSpace(input.Title) == "" {
		fields["title"] = "must not be empty"
	}
	if strings.TrimSpace(input.Description) == "" {
		fields["description"] = "must not be empty"
	}
	if input.BrandID == uuid.Nil {
		fields["brand_id"] = "required"
	}
	if input.StoreID == uuid.Nil {
		fields["store_id"] = "required"
	}
	if len(input.Variants) == 0 {
		fields["variants"] = "at least one variant is required"
	}
	for i := range input.Variants {
		variant := &input.Variants[i]
		if strings.TrimSpace(variant.SKU) == "" {
			fields[fmt.Sprintf("variants[%d].sku", i)] = "must not be empty"
		}
		if variant.Price.IsNegative() {
			fields[fmt.Sprintf("variants[%d].price", i)] = "must not be negative"
		}
		if variant.WeightUnit == "" {
			variant.WeightUnit = enums.WeightUnitGrams
		} else if !variant.WeightUnit.IsValid() {
			fields[fmt.Sprintf("variants[%d].weight_unit", i)] = "unknown unit"
		}
	}
	for i, image := range input.Images {
		if strings.TrimSpace(image.SourceURL) == "" {
			fields[fmt.Sprintf("images[%d].source_url", i)] = "must not be empty"
		}
	}
	if input.Status == "" {
		input.Status = enums.ProductStatusActive
	} else if !input.Status.IsValid() {
		fields["status"] = "unknown status"
	}

	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product payload").WithDetails(fields)
	}
	return nil
}

func buildRemoteInput(input CreateProductInput) shopify.ProductInput {
	remote := shopify.ProductInput{
		Title:           input.Title,
		DescriptionHTML: input.Description,
		Tags:            input.Tags,
		Status:          input.Status.String(),
	}
	if input.Vendor != nil {
		remote.Vendor = *input.Vendor
	}
	if input.ProductType != nil {
		remote.ProductType = *input.ProductType
	}
	for _, variant := range input.Variants {
		remoteVariant := shopify.VariantInput{
			SKU:        variant.SKU,
			Price:      variant.Price.StringFixed(2),
			Barcode:    variant.Barcode,
			Weight:     variant.Weight,
			WeightUnit: variant.WeightUnit.String(),
		}
		if variant.CompareAtPrice != nil {
			compare := variant.CompareAtPrice.StringFixed(2)
			remoteVariant.CompareAtPrice = &compare
		}
		remote.Variants = append(remote.Variants, remoteVariant)
	}
	return remote
}

func buildProductModel(uid uuid.UUID, input CreateProductInput, remote *shopify.RemoteProduct) *models.Product {
	description := strings.TrimSpace(input.Description)
	product := &models.Product{
		UID:         uid,
		BrandID:     input.BrandID,
		Title:       strings.TrimSpace(input.Title),
		BodyHTML:    &description,
		Vendor:      input.Vendor,
		ProductType: input.ProductType,
		Tags:        joinTags(input.Tags),
		Status:      input.Status,
	}

	primary := input.Variants[0]
	product.SKU = primary.SKU
	product.Price = primary.Price
	product.CompareAtPrice = primary.CompareAtPrice
	product.Barcode = primary.Barcode
	product.Weight = primary.Weight
	product.WeightUnit = primary.WeightUnit

	remoteBySKU := make(map[string]shopify.RemoteVariant, len(remote.Variants))
	for _, rv := range remote.Variants {
		remoteBySKU[rv.SKU] = rv
	}

	for i, variant := range input.Variants {
		row := models.ProductVariant{
			ID:             uuid.New(),
			ProductUID:     uid,
			SKU:            variant.SKU,
			Price:          variant.Price,
			CompareAtPrice: variant.CompareAtPrice,
			Barcode:        variant.Barcode,
			Weight:         variant.Weight,
			WeightUnit:     variant.WeightUnit,
			Position:       i,
		}
		if rv, ok := remoteBySKU[variant.SKU]; ok {
			remoteID := rv.ID
			inventoryItemID := rv.InventoryItemID
			row.RemoteVariantID = &remoteID
			row.InventoryItemID = &inventoryItemID
		} else if i < len(remote.Variants) {
			remoteID := remote.Variants[i].ID
			inventoryItemID := remote.Variants[i].InventoryItemID
			row.RemoteVariantID = &remoteID
			row.InventoryItemID = &inventoryItemID
		}
		product.Variants = append(product.Variants, row)
	}

	for _, image := range input.Images {
		product.Images = append(product.Images, models.ProductImage{
			ID:         uuid.New(),
			ProductUID: uid,
			SourceURL:  image.SourceURL,
			AltText:    image.AltText,
			Position:   image.Position,
		})
	}
	return product
}

// attachMediaIdentity stamps remote media ids onto the image rows that made
// it. mediaIDs is ordered by position; walk the rows the same way.
func attachMediaIdentity(product *models.Product, mediaIDs []string, failedImages []string) {
	failedSet := make(map[string]bool, len(failedImages))
	for _, url := range failedImages {
		failedSet[url] = true
	}

	indices := make([]int, 0, len(product.Images))
	for i := range product.Images {
		if !failedSet[product.Images[i].SourceURL] {
			indices = append(indices, i)
		}
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return product.Images[indices[a]].Position < product.Images[indices[b]].Position
	})

	for n, idx := range indices {
		if n >= len(mediaIDs) {
			break
		}
		mediaID := mediaIDs[n]
		product.Images[idx].RemoteMediaID = &mediaID
	}
}

func buildUpdate(input UpdateProductInput) (map[string]any, shopify.ProductUpdate, error) {
	columns := map[string]any{}
	var remote shopify.ProductUpdate

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, remote, pkgerrors.New(pkgerrors.CodeValidation, "title must not be empty")
		}
		columns["title"] = title
		remote.Title = &title
	}
	if input.Description != nil {
		columns["body_html"] = *input.Description
		remote.DescriptionHTML = input.Description
	}
	if input.Vendor != nil {
		columns["vendor"] = *input.Vendor
		remote.Vendor = input.Vendor
	}
	if input.ProductType != nil {
		columns["product_type"] = *input.ProductType
		remote.ProductType = input.ProductType
	}
	if input.Tags != nil {
		columns["tags"] = joinTags(*input.Tags)
		remote.Tags = *input.Tags
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, remote, pkgerrors.New(pkgerrors.CodeValidation, "unknown product status")
		}
		columns["status"] = *input.Status
		status := input.Status.String()
		remote.Status = &status
	}
	return columns, remote, nil
}

func columnNames(columns map[string]any) map[string]any {
	names := make([]string, 0, len(columns))
	for name := range columns {
		if name == "updated_at" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return map[string]any{"fields": names}
}

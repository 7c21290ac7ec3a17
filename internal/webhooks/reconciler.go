package webhooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hooterhq/hooter-backend/internal/audit"
	"github.com/hooterhq/hooter-backend/internal/products"
	"github.com/hooterhq/hooter-backend/pkg/db"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"github.com/hooterhq/hooter-backend/pkg/logger"
	"github.com/hooterhq/hooter-backend/pkg/redis"
	"gorm.io/gorm"
)

// Outcome reports what a webhook delivery did to the local mirror.
type Outcome string

const (
	// OutcomeApplied means the payload changed local state.
	OutcomeApplied Outcome = "applied"
	// OutcomeIgnored means the payload was valid but matched nothing local,
	// or was a replayed delivery.
	OutcomeIgnored Outcome = "ignored"
)

const (
	topicProductUpdate   = "products/update"
	topicInventoryUpdate = "inventory_levels/update"

	replayTTL = 24 * time.Hour
)

// Reconciler applies inbound platform events to the local mirror. The local
// system stays authoritative for creation; unknown remote ids are never
// adopted, only logged.
type Reconciler struct {
	repo     *products.Repository
	dbClient *db.Client
	auditor  *audit.Recorder
	replay   redis.ReplayStore
	secret   string
	logg     *logger.Logger
	now      func() time.Time
}

// NewReconciler constructs the webhook reconciler. The replay store is
// optional; without it every delivery is processed.
func NewReconciler(
	repo *products.Repository,
	dbClient *db.Client,
	auditor *audit.Recorder,
	replay redis.ReplayStore,
	secret string,
	logg *logger.Logger,
) (*Reconciler, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if auditor == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Reconciler{
		repo:     repo,
		dbClient: dbClient,
		auditor:  auditor,
		replay:   replay,
		secret:   secret,
		logg:     logg,
		now:      time.Now,
	}, nil
}

type productUpdatePayload struct {
	ID                json.Number `json:"id"`
	AdminGraphQLAPIID string      `json:"admin_graphql_api_id"`
	Title             *string     `json:"title"`
	BodyHTML          *string     `json:"body_html"`
	Vendor            *string     `json:"vendor"`
	ProductType       *string     `json:"product_type"`
	Tags              *string     `json:"tags"`
}

type inventoryUpdatePayload struct {
	InventoryItemID json.Number `json:"inventory_item_id"`
	LocationID      json.Number `json:"location_id"`
	Available       *int        `json:"available"`
}

// HandleProductUpdate verifies, dedupes, and applies a product-updated
// event. Only mapped products are patched; the allow-list mirrors the API
// update path.
func (r *Reconciler) HandleProductUpdate(ctx context.Context, body []byte, signature string) (Outcome, error) {
	if err := VerifySignature(r.secret, body, signature); err != nil {
		return "", err
	}

	var payload productUpdatePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}
	remoteID := remoteGID(payload.AdminGraphQLAPIID, "Product", payload.ID)
	if remoteID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "webhook payload has no product id")
	}

	if replayed, err := r.seen(ctx, topicProductUpdate, body); err != nil {
		return "", err
	} else if replayed {
		return OutcomeIgnored, nil
	}

	mapping, err := r.repo.FindMappingByRemoteID(ctx, remoteID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve remote mapping")
	}
	if mapping == nil {
		ctx := r.logg.WithField(ctx, "remote_product_id", remoteID)
		r.logg.Error(ctx, "webhook references unknown remote product", nil)
		return OutcomeIgnored, nil
	}

	product, err := r.repo.FindProductByUIDOnly(ctx, mapping.ProductUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx := r.logg.WithField(ctx, "product_uid", mapping.ProductUID.String())
			r.logg.Error(ctx, "mapping exists without product row", nil)
			return OutcomeIgnored, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	columns := map[string]any{}
	if payload.Title != nil && strings.TrimSpace(*payload.Title) != "" {
		columns["title"] = strings.TrimSpace(*payload.Title)
	}
	if payload.BodyHTML != nil {
		columns["body_html"] = *payload.BodyHTML
	}
	if payload.Vendor != nil {
		columns["vendor"] = *payload.Vendor
	}
	if payload.ProductType != nil {
		columns["product_type"] = *payload.ProductType
	}
	if payload.Tags != nil {
		columns["tags"] = normalizeTags(*payload.Tags)
	}
	if len(columns) == 0 {
		return OutcomeIgnored, nil
	}

	uid := mapping.ProductUID
	err = r.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := r.repo.WithTx(tx).UpdateColumns(ctx, uid, columns); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "patch product from webhook")
		}
		return r.auditor.WithTx(tx).Record(ctx, audit.Entry{
			BrandID:    product.BrandID,
			ProductUID: &uid,
			Action:     enums.AuditActionUpdate,
			Source:     enums.AuditSourceWebhook,
			Payload:    map[string]any{"remote_product_id": remoteID},
		})
	})
	if err != nil {
		return "", err
	}
	return OutcomeApplied, nil
}

// HandleInventoryUpdate verifies, dedupes, and applies an inventory-level
// event to the matching variant's record.
func (r *Reconciler) HandleInventoryUpdate(ctx context.Context, body []byte, signature string) (Outcome, error) {
	if err := VerifySignature(r.secret, body, signature); err != nil {
		return "", err
	}

	var payload inventoryUpdatePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}
	itemID := remoteGID("", "InventoryItem", payload.InventoryItemID)
	locationID := remoteGID("", "Location", payload.LocationID)
	if itemID == "" || locationID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "webhook payload is missing inventory identifiers")
	}

	if replayed, err := r.seen(ctx, topicInventoryUpdate, body); err != nil {
		return "", err
	} else if replayed {
		return OutcomeIgnored, nil
	}

	variant, err := r.repo.FindVariantByInventoryItemID(ctx, itemID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve variant")
	}
	if variant == nil {
		ctx := r.logg.WithField(ctx, "inventory_item_id", itemID)
		r.logg.Error(ctx, "webhook references unknown inventory item", nil)
		return OutcomeIgnored, nil
	}

	product, err := r.repo.FindProductByUIDOnly(ctx, variant.ProductUID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	quantity := 0
	if payload.Available != nil {
		quantity = *payload.Available
	}

	uid := variant.ProductUID
	err = r.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := r.repo.WithTx(tx)
		if err := txRepo.UpsertInventoryRecord(ctx, variant.ID, locationID, quantity, enums.InventorySyncStatusInSync, r.now().UTC()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert inventory record")
		}
		return r.auditor.WithTx(tx).Record(ctx, audit.Entry{
			BrandID:    product.BrandID,
			ProductUID: &uid,
			Action:     enums.AuditActionInventory,
			Source:     enums.AuditSourceWebhook,
			Payload: map[string]any{
				"inventory_item_id": itemID,
				"location_id":       locationID,
				"available":         quantity,
			},
		})
	})
	if err != nil {
		return "", err
	}
	return OutcomeApplied, nil
}

// seen marks the delivery body as processed. A second delivery of the same
// body within the TTL reports true.
func (r *Reconciler) seen(ctx context.Context, topic string, body []byte) (bool, error) {
	if r.replay == nil {
		return false, nil
	}
	digest := sha256.Sum256(body)
	key := r.replay.WebhookKey(topic, hex.EncodeToString(digest[:]))
	fresh, err := r.replay.SetNX(ctx, key, 1, replayTTL)
	if err != nil {
		// Redis being down must not drop webhooks; process the delivery.
		r.logg.Warn(ctx, "webhook replay guard unavailable")
		return false, nil
	}
	return !fresh, nil
}

// remoteGID prefers the graphql id when the payload carries one, otherwise
// builds it from the numeric id.
func remoteGID(graphqlID, kind string, numeric json.Number) string {
	if strings.TrimSpace(graphqlID) != "" {
		return strings.TrimSpace(graphqlID)
	}
	if numeric.String() == "" {
		return ""
	}
	return fmt.Sprintf("gid://shopify/%s/%s", kind, numeric.String())
}

func normalizeTags(raw string) string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			tags = append(tags, part)
		}
	}
	return strings.Join(tags, ",")
}

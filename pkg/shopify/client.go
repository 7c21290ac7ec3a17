package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hooterhq/hooter-backend/pkg/config"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"github.com/hooterhq/hooter-backend/pkg/logger"
	"github.com/hooterhq/hooter-backend/pkg/retry"
)

var (
	errShopDomainRequired  = errors.New("shopify shop domain is required")
	errAccessTokenRequired = errors.New("shopify access token is required")
	errLoggerRequired      = errors.New("shopify logger is required")
)

// API is the remote commerce surface the sync engine depends on.
type API interface {
	ValidateCredentials(ctx context.Context) (string, error)
	CreateProduct(ctx context.Context, input ProductInput) (*RemoteProduct, error)
	UpdateProduct(ctx context.Context, remoteID string, update ProductUpdate) error
	DeleteProduct(ctx context.Context, remoteID string) error
	CreateVariant(ctx context.Context, remoteProductID string, input VariantInput) (*RemoteVariant, error)
	UpdateVariant(ctx context.Context, remoteProductID, remoteVariantID string, update VariantUpdate) error
	DeleteVariant(ctx context.Context, remoteProductID, remoteVariantID string) error
	CreateProductMedia(ctx context.Context, remoteID string, media MediaInput) (string, error)
	ReorderProductMedia(ctx context.Context, remoteID string, mediaIDs []string) error
	ValidateImageURL(ctx context.Context, sourceURL string) error
	ListLocations(ctx context.Context) ([]Location, error)
	ActivateInventory(ctx context.Context, inventoryItemID, locationID string) error
	SetInventoryQuantity(ctx context.Context, inventoryItemID, locationID string, quantity int) error
}

// Factory builds per-shop clients from shared configuration.
type Factory struct {
	cfg  config.ShopifyConfig
	logg *logger.Logger
}

// NewFactory validates the shared configuration once.
func NewFactory(cfg config.ShopifyConfig, logg *logger.Logger) (*Factory, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if cfg.APIVersion == "" {
		return nil, errors.New("shopify api version is required")
	}
	return &Factory{cfg: cfg, logg: logg}, nil
}

// ForShop returns a client bound to one shop's credentials.
func (f *Factory) ForShop(creds Credentials) (API, error) {
	return NewClient(f.cfg, creds, f.logg)
}

// Client talks to one shop's Admin API with centralized auth, logging,
// throttle backpressure, and error mapping.
type Client struct {
	cfg     config.ShopifyConfig
	creds   Credentials
	baseURL string

	gqlClient  *http.Client
	restClient *http.Client
	headClient *http.Client

	logger *logger.Logger
	sleep  func(ctx context.Context, delay time.Duration) error
}

// NewClient initializes the wrapper and validates the credentials shape.
func NewClient(cfg config.ShopifyConfig, creds Credentials, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	domain := strings.TrimSpace(creds.ShopDomain)
	if domain == "" {
		return nil, errShopDomainRequired
	}
	if strings.TrimSpace(creds.AccessToken) == "" {
		return nil, errAccessTokenRequired
	}
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	domain = strings.TrimRight(domain, "/")

	return &Client{
		cfg:        cfg,
		creds:      creds,
		baseURL:    domain,
		gqlClient:  &http.Client{Timeout: cfg.GraphQLTimeout},
		restClient: &http.Client{Timeout: cfg.RESTTimeout},
		headClient: &http.Client{Timeout: cfg.ImageTimeout},
		logger:     logg,
		sleep:      sleepWithContext,
	}, nil
}

// ValidateCredentials runs a minimal shop query and returns the shop name.
func (c *Client) ValidateCredentials(ctx context.Context) (string, error) {
	const query = `
query shopName {
	shop { name }
}`

	var data shopData
	if err := c.graphqlRequest(ctx, query, nil, &data); err != nil {
		return "", err
	}
	if strings.TrimSpace(data.Shop.Name) == "" {
		return "", pkgerrors.New(pkgerrors.CodeRemoteAPI, "shop query returned no shop")
	}
	return data.Shop.Name, nil
}

// CreateProduct creates the product with its variants in one mutation.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (*RemoteProduct, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product title is required")
	}

	const query = `
mutation productCreate($input: ProductInput!) {
	productCreate(input: $input) {
		product {
			id
			variants(first: 100) {
				nodes {
					id
					sku
					inventoryItem { id }
				}
			}
		}
		userErrors { field message }
	}
}`

	c.log(ctx, "request", "product_create", map[string]any{"title": input.Title})

	var data productCreateData
	err := c.graphqlRequest(ctx, query, map[string]any{"input": buildProductInput(input)}, &data)
	if err != nil {
		c.log(ctx, "error", "product_create", map[string]any{"error": err.Error()})
		return nil, err
	}
	if err := userErrorsToError("productCreate", data.ProductCreate.UserErrors); err != nil {
		return nil, err
	}
	payload := data.ProductCreate.Product
	if payload == nil || strings.TrimSpace(payload.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeRemoteAPI, "product create returned empty product id")
	}

	remote := &RemoteProduct{ID: payload.ID}
	for _, node := range payload.Variants.Nodes {
		remote.Variants = append(remote.Variants, RemoteVariant{
			ID:              node.ID,
			SKU:             node.SKU,
			InventoryItemID: node.InventoryItem.ID,
		})
	}
	c.log(ctx, "response", "product_create", map[string]any{"remote_product_id": remote.ID})
	return remote, nil
}

// UpdateProduct patches only the fields present in the update.
func (c *Client) UpdateProduct(ctx context.Context, remoteID string, update ProductUpdate) error {
	remoteID = strings.TrimSpace(remoteID)
	if remoteID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "remote product id is required")
	}

	input := map[string]any{"id": remoteID}
	if update.Title != nil {
		input["title"] = *update.Title
	}
	if update.DescriptionHTML != nil {
		input["descriptionHtml"] = *update.DescriptionHTML
	}
	if update.Vendor != nil {
		input["vendor"] = *update.Vendor
	}
	if update.ProductType != nil {
		input["productType"] = *update.ProductType
	}
	if update.Tags != nil {
		input["tags"] = update.Tags
	}
	if update.Status != nil {
		input["status"] = *update.Status
	}

	const query = `
mutation productUpdate($input: ProductInput!) {
	productUpdate(input: $input) {
		product { id }
		userErrors { field message }
	}
}`

	c.log(ctx, "request", "product_update", map[string]any{"remote_product_id": remoteID})

	var data productUpdateData
	if err := c.graphqlRequest(ctx, query, map[string]any{"input": input}, &data); err != nil {
		c.log(ctx, "error", "product_update", map[string]any{"error": err.Error()})
		return err
	}
	return userErrorsToError("productUpdate", data.ProductUpdate.UserErrors)
}

// DeleteProduct removes the remote product through the REST Admin API.
func (c *Client) DeleteProduct(ctx context.Context, remoteID string) error {
	legacyID := legacyIDFromGID(remoteID)
	if legacyID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "remote product id is required")
	}

	endpoint := fmt.Sprintf("%s/admin/api/%s/products/%s.json", c.baseURL, c.cfg.APIVersion, legacyID)
	c.log(ctx, "request", "product_delete", map[string]any{"remote_product_id": remoteID})

	_, err := c.restRequest(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		c.log(ctx, "error", "product_delete", map[string]any{"error": err.Error()})
	}
	return err
}

// CreateVariant adds one sellable unit to an existing remote product.
func (c *Client) CreateVariant(ctx context.Context, remoteProductID string, input VariantInput) (*RemoteVariant, error) {
	remoteProductID = strings.TrimSpace(remoteProductID)
	if remoteProductID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remote product id is required")
	}
	if strings.TrimSpace(input.SKU) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant sku is required")
	}

	variant := map[string]any{
		"sku":   input.SKU,
		"price": input.Price,
	}
	if input.CompareAtPrice != nil {
		variant["compareAtPrice"] = *input.CompareAtPrice
	}
	if input.Barcode != nil {
		variant["barcode"] = *input.Barcode
	}
	if input.Weight != nil {
		variant["weight"] = *input.Weight
		if input.WeightUnit != "" {
			variant["weightUnit"] = input.WeightUnit
		}
	}

	const query = `
mutation productVariantsBulkCreate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
	productVariantsBulkCreate(productId: $productId, variants: $variants) {
		productVariants {
			id
			sku
			inventoryItem { id }
		}
		userErrors { field message }
	}
}`

	c.log(ctx, "request", "variant_create", map[string]any{"remote_product_id": remoteProductID, "sku": input.SKU})

	var data variantsBulkCreateData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"productId": remoteProductID,
		"variants":  []map[string]any{variant},
	}, &data)
	if err != nil {
		c.log(ctx, "error", "variant_create", map[string]any{"error": err.Error()})
		return nil, err
	}
	if err := userErrorsToError("productVariantsBulkCreate", data.ProductVariantsBulkCreate.UserErrors); err != nil {
		return nil, err
	}
	nodes := data.ProductVariantsBulkCreate.ProductVariants
	if len(nodes) == 0 || strings.TrimSpace(nodes[0].ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeRemoteAPI, "variant create returned empty variant id")
	}
	return &RemoteVariant{
		ID:              nodes[0].ID,
		SKU:             nodes[0].SKU,
		InventoryItemID: nodes[0].InventoryItem.ID,
	}, nil
}

// UpdateVariant patches only the price fields present in the update.
func (c *Client) UpdateVariant(ctx context.Context, remoteProductID, remoteVariantID string, update VariantUpdate) error {
	remoteProductID = strings.TrimSpace(remoteProductID)
	remoteVariantID = strings.TrimSpace(remoteVariantID)
	if remoteProductID == "" || remoteVariantID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "remote product and variant ids are required")
	}

	variant := map[string]any{"id": remoteVariantID}
	if update.Price != nil {
		variant["price"] = *update.Price
	}
	if update.CompareAtPrice != nil {
		variant["compareAtPrice"] = *update.CompareAtPrice
	}

	const query = `
mutation productVariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
	productVariantsBulkUpdate(productId: $productId, variants: $variants) {
		userErrors { field message }
	}
}`

	c.log(ctx, "request", "variant_update", map[string]any{"remote_variant_id": remoteVariantID})

	var data variantsBulkUpdateData
	if err := c.graphqlRequest(ctx, query, map[string]any{
		"productId": remoteProductID,
		"variants":  []map[string]any{variant},
	}, &data); err != nil {
		c.log(ctx, "error", "variant_update", map[string]any{"error": err.Error()})
		return err
	}
	return userErrorsToError("productVariantsBulkUpdate", data.ProductVariantsBulkUpdate.UserErrors)
}

// DeleteVariant removes one variant from a remote product.
func (c *Client) DeleteVariant(ctx context.Context, remoteProductID, remoteVariantID string) error {
	remoteProductID = strings.TrimSpace(remoteProductID)
	remoteVariantID = strings.TrimSpace(remoteVariantID)
	if remoteProductID == "" || remoteVariantID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "remote product and variant ids are required")
	}

	const query = `
mutation productVariantsBulkDelete($productId: ID!, $variantsIds: [ID!]!) {
	productVariantsBulkDelete(productId: $productId, variantsIds: $variantsIds) {
		userErrors { field message }
	}
}`

	c.log(ctx, "request", "variant_delete", map[string]any{"remote_variant_id": remoteVariantID})

	var data variantsBulkDeleteData
	if err := c.graphqlRequest(ctx, query, map[string]any{
		"productId":   remoteProductID,
		"variantsIds": []string{remoteVariantID},
	}, &data); err != nil {
		c.log(ctx, "error", "variant_delete", map[string]any{"error": err.Error()})
		return err
	}
	return userErrorsToError("productVariantsBulkDelete", data.ProductVariantsBulkDelete.UserErrors)
}

// CreateProductMedia attaches one image and returns the remote media id.
func (c *Client) CreateProductMedia(ctx context.Context, remoteID string, media MediaInput) (string, error) {
	remoteID = strings.TrimSpace(remoteID)
	if remoteID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "remote product id is required")
	}
	if strings.TrimSpace(media.SourceURL) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "media source url is required")
	}

	const query = `
mutation productCreateMedia($productId: ID!, $media: [CreateMediaInput!]!) {
	productCreateMedia(productId: $productId, media: $media) {
		media { id }
		mediaUserErrors { field message }
	}
}`

	mediaInput := map[string]any{
		"originalSource": media.SourceURL,
		"mediaContentType": "IMAGE",
	}
	if strings.TrimSpace(media.AltText) != "" {
		mediaInput["alt"] = media.AltText
	}

	var data productCreateMediaData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"productId": remoteID,
		"media":     []map[string]any{mediaInput},
	}, &data)
	if err != nil {
		return "", err
	}
	if err := userErrorsToError("productCreateMedia", data.ProductCreateMedia.MediaUserErrors); err != nil {
		return "", err
	}
	if len(data.ProductCreateMedia.Media) == 0 || strings.TrimSpace(data.ProductCreateMedia.Media[0].ID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeRemoteAPI, "media create returned no media id")
	}
	return data.ProductCreateMedia.Media[0].ID, nil
}

// ReorderProductMedia applies the given order to the remote product's media.
func (c *Client) ReorderProductMedia(ctx context.Context, remoteID string, mediaIDs []string) error {
	remoteID = strings.TrimSpace(remoteID)
	if remoteID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "remote product id is required")
	}
	if len(mediaIDs) < 2 {
		return nil
	}

	const query = `
mutation productReorderMedia($id: ID!, $moves: [MoveInput!]!) {
	productReorderMedia(id: $id, moves: $moves) {
		mediaUserErrors { field message }
	}
}`

	moves := make([]map[string]any, 0, len(mediaIDs))
	for position, mediaID := range mediaIDs {
		moves = append(moves, map[string]any{
			"id":          mediaID,
			"newPosition": fmt.Sprintf("%d", position),
		})
	}

	var data productReorderMediaData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"id":    remoteID,
		"moves": moves,
	}, &data)
	if err != nil {
		return err
	}
	return userErrorsToError("productReorderMedia", data.ProductReorderMedia.MediaUserErrors)
}

// ValidateImageURL issues a HEAD request and checks the content type before a
// sync references the image remotely.
func (c *Client) ValidateImageURL(ctx context.Context, sourceURL string) error {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "image url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, sourceURL, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image url")
	}

	resp, err := c.headClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image url is unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("image url returned status %d", resp.StatusCode))
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("image url has content type %q", contentType))
	}
	return nil
}

// ListLocations returns the shop's inventory locations.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	const query = `
query locations($first: Int!) {
	locations(first: $first) {
		nodes { id name isActive }
	}
}`

	var data locationsData
	if err := c.graphqlRequest(ctx, query, map[string]any{"first": 20}, &data); err != nil {
		return nil, err
	}

	locations := make([]Location, 0, len(data.Locations.Nodes))
	for _, node := range data.Locations.Nodes {
		locations = append(locations, Location{
			ID:     node.ID,
			Name:   node.Name,
			Active: node.IsActive,
		})
	}
	return locations, nil
}

// ActivateInventory makes an inventory item stockable at a location.
func (c *Client) ActivateInventory(ctx context.Context, inventoryItemID, locationID string) error {
	if strings.TrimSpace(inventoryItemID) == "" || strings.TrimSpace(locationID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "inventory item id and location id are required")
	}

	const query = `
mutation inventoryActivate($inventoryItemId: ID!, $locationId: ID!) {
	inventoryActivate(inventoryItemId: $inventoryItemId, locationId: $locationId) {
		inventoryLevel { id }
		userErrors { field message }
	}
}`

	var data inventoryActivateData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"inventoryItemId": inventoryItemID,
		"locationId":      locationID,
	}, &data)
	if err != nil {
		return err
	}
	return userErrorsToError("inventoryActivate", data.InventoryActivate.UserErrors)
}

// SetInventoryQuantity overwrites the available quantity at a location.
func (c *Client) SetInventoryQuantity(ctx context.Context, inventoryItemID, locationID string, quantity int) error {
	if strings.TrimSpace(inventoryItemID) == "" || strings.TrimSpace(locationID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "inventory item id and location id are required")
	}
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	const query = `
mutation inventorySetQuantities($input: InventorySetQuantitiesInput!) {
	inventorySetQuantities(input: $input) {
		userErrors { field message }
	}
}`

	var data inventorySetData
	err := c.graphqlRequest(ctx, query, map[string]any{
		"input": map[string]any{
			"name":   "available",
			"reason": "correction",
			"ignoreCompareQuantity": true,
			"quantities": []map[string]any{{
				"inventoryItemId": inventoryItemID,
				"locationId":      locationID,
				"quantity":        quantity,
			}},
		},
	}, &data)
	if err != nil {
		return err
	}
	return userErrorsToError("inventorySetQuantities", data.InventorySetQuantities.UserErrors)
}

func buildProductInput(input ProductInput) map[string]any {
	payload := map[string]any{
		"title": input.Title,
	}
	if strings.TrimSpace(input.DescriptionHTML) != "" {
		payload["descriptionHtml"] = input.DescriptionHTML
	}
	if strings.TrimSpace(input.Vendor) != "" {
		payload["vendor"] = input.Vendor
	}
	if strings.TrimSpace(input.ProductType) != "" {
		payload["productType"] = input.ProductType
	}
	if len(input.Tags) > 0 {
		payload["tags"] = input.Tags
	}
	if strings.TrimSpace(input.Status) != "" {
		payload["status"] = input.Status
	}

	if len(input.Variants) > 0 {
		variants := make([]map[string]any, 0, len(input.Variants))
		for _, v := range input.Variants {
			variant := map[string]any{
				"sku":   v.SKU,
				"price": v.Price,
			}
			if v.CompareAtPrice != nil {
				variant["compareAtPrice"] = *v.CompareAtPrice
			}
			if v.Barcode != nil {
				variant["barcode"] = *v.Barcode
			}
			if v.Weight != nil {
				variant["weight"] = *v.Weight
				if v.WeightUnit != "" {
					variant["weightUnit"] = v.WeightUnit
				}
			}
			variants = append(variants, variant)
		}
		payload["variants"] = variants
	}
	return payload
}

func (c *Client) graphqlRequest(ctx context.Context, query string, variables map[string]any, out any) error {
	endpoint := fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL, c.cfg.APIVersion)

	payload := graphQLRequest{
		Query:     strings.TrimSpace(query),
		Variables: variables,
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding graphql request")
	}

	raw, err := c.doRequest(ctx, c.gqlClient, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}

	var resp graphQLResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteAPI, err, "decoding graphql response")
	}
	if len(resp.Errors) > 0 {
		if isThrottleError(resp.Errors) {
			return retry.Transient(pkgerrors.New(pkgerrors.CodeDependency, "remote platform throttled the request"))
		}
		return pkgerrors.New(pkgerrors.CodeRemoteAPI, "graphql request rejected").
			WithDetails(formatGraphQLErrors(resp.Errors))
	}

	if wait := throttleWait(resp.Extensions.Cost.ThrottleStatus, c.cfg.ThrottleReserve); wait > 0 {
		c.log(ctx, "throttle", "graphql", map[string]any{"wait": wait.String()})
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}

	if out == nil {
		return nil
	}
	if len(resp.Data) == 0 {
		return pkgerrors.New(pkgerrors.CodeRemoteAPI, "graphql response missing data")
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteAPI, err, "decoding graphql data")
	}
	return nil
}

func (c *Client) restRequest(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	return c.doRequest(ctx, c.restClient, method, endpoint, body)
}

func (c *Client) doRequest(ctx context.Context, client *http.Client, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.creds.AccessToken)

	resp, err := client.Do(req)
	if err != nil {
		return nil, retry.Transient(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remote platform unreachable"))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Transient(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading remote response"))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		mapped := mapStatusError(resp.StatusCode, respBody)
		if isRetryableStatus(resp.StatusCode) {
			return nil, retry.Transient(mapped)
		}
		return nil, mapped
	}
	return respBody, nil
}

func mapStatusError(status int, body []byte) error {
	message := fmt.Sprintf("remote platform returned status %d", status)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, message)
	case http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, message)
	default:
		if status >= 500 || status == http.StatusTooManyRequests {
			return pkgerrors.New(pkgerrors.CodeDependency, message)
		}
		return pkgerrors.New(pkgerrors.CodeRemoteAPI, message).
			WithDetails(strings.TrimSpace(string(body)))
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isThrottleError(errs []graphQLError) bool {
	for _, e := range errs {
		if strings.Contains(strings.ToLower(e.Message), "throttled") {
			return true
		}
		if code, ok := e.Extensions["code"].(string); ok && strings.EqualFold(code, "THROTTLED") {
			return true
		}
	}
	return false
}

func userErrorsToError(action string, errs []userError) error {
	if len(errs) == 0 {
		return nil
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			continue
		}
		if len(e.Field) > 0 {
			msg = fmt.Sprintf("%s: %s", strings.Join(e.Field, "."), msg)
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return pkgerrors.New(pkgerrors.CodeRemoteAPI, fmt.Sprintf("%s failed with user errors", action))
	}
	return pkgerrors.New(pkgerrors.CodeRemoteAPI, fmt.Sprintf("%s rejected", action)).
		WithDetails(strings.Join(parts, "; "))
}

func formatGraphQLErrors(errs []graphQLError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			continue
		}
		if len(e.Path) > 0 {
			msg = fmt.Sprintf("%s (path: %v)", msg, e.Path)
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return "unknown graphql error"
	}
	return strings.Join(parts, "; ")
}

// legacyIDFromGID strips the gid prefix, e.g. gid://shopify/Product/42 -> 42.
func legacyIDFromGID(gid string) string {
	gid = strings.TrimSpace(gid)
	if gid == "" {
		return ""
	}
	if idx := strings.LastIndex(gid, "/"); idx >= 0 {
		return gid[idx+1:]
	}
	return gid
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
		"shop":      c.creds.ShopDomain,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("shopify %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("shopify %s", phase))
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hooterhq/hooter-backend/api/responses"
	"github.com/hooterhq/hooter-backend/api/validators"
	productsvc "github.com/hooterhq/hooter-backend/internal/products"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"github.com/hooterhq/hooter-backend/pkg/logger"
)

const idempotencyKeyHeader = "Idempotency-Key"

// ProductCreate creates a product locally and mirrors it to the brand's store.
func ProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.IdempotencyKey = strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))

		result, err := svc.CreateProduct(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ProductBulkCreate processes up to 100 create payloads sequentially and
// reports per-item outcomes.
func ProductBulkCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload bulkCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inputs := make([]productsvc.CreateProductInput, 0, len(payload.Items))
		for i, item := range payload.Items {
			input, err := item.toCreateInput()
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bulk item").
						WithDetails(map[string]any{"index": i}))
				return
			}
			inputs = append(inputs, input)
		}

		key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
		results, err := svc.BulkCreateProducts(r.Context(), userID, key, inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, results)
	}
}

// ProductDetail returns one product scoped to its brand.
func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brandID, err := validators.ParseUUIDParam(r, "brandId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uid, err := validators.ParseUUIDParam(r, "productUid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), userID, brandID, uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ProductHistory returns the product's change log entries, newest first.
func ProductHistory(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brandID, err := validators.ParseUUIDParam(r, "brandId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uid, err := validators.ParseUUIDParam(r, "productUid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.ProductHistory(r.Context(), userID, brandID, uid, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, entries)
	}
}

// ProductList pages the brand catalogue with optional status/search filters.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brandID, err := validators.ParseUUIDParam(r, "brandId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := productsvc.ListProductsInput{
			BrandID: brandID,
			Search:  strings.TrimSpace(r.URL.Query().Get("search")),
			Limit:   limit,
			Offset:  offset,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseProductStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			input.Status = &status
		}

		result, err := svc.ListProducts(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// ProductUpdate applies an allow-listed partial patch locally and remotely.
func ProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brandID, err := validators.ParseUUIDParam(r, "brandId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uid, err := validators.ParseUUIDParam(r, "productUid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), userID, brandID, uid, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ProductUpdateVariant patches one variant's price fields locally and
// remotely.
func ProductUpdateVariant(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brandID, err := validators.ParseUUIDParam(r, "brandId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uid, err := validators.ParseUUIDParam(r, "productUid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := validators.ParseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateVariantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variant, err := svc.UpdateVariantPricing(r.Context(), userID, brandID, uid, variantID, productsvc.VariantPricingInput{
			Price:          payload.Price,
			CompareAtPrice: payload.CompareAtPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, variant)
	}
}

// ProductDelete archives a product by default; ?soft=false removes the rows.
func ProductDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brandID, err := validators.ParseUUIDParam(r, "brandId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uid, err := validators.ParseUUIDParam(r, "productUid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		soft, err := validators.ParseQueryBool(r, "soft", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), userID, brandID, uid, soft); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"status": "deleted", "soft": soft})
	}
}

// ProductSyncInventory pushes per-variant quantities to the store's first
// fulfillment location.
func ProductSyncInventory(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		brandID, err := validators.ParseUUIDParam(r, "brandId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		uid, err := validators.ParseUUIDParam(r, "productUid")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload syncInventoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SyncInventory(r.Context(), userID, brandID, uid, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type createProductRequest struct {
	BrandID     string                 `json:"brand_id" validate:"required,uuid"`
	StoreID     string                 `json:"store_id" validate:"required,uuid"`
	Title       string                 `json:"title" validate:"required,max=255"`
	Description string                 `json:"description,omitempty"`
	Vendor      *string                `json:"vendor,omitempty"`
	ProductType *string                `json:"product_type,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Status      *string                `json:"status,omitempty"`
	Variants    []createVariantRequest `json:"variants" validate:"required,min=1,dive"`
	Images      []createImageRequest   `json:"images,omitempty" validate:"omitempty,dive"`
}

type createVariantRequest struct {
	SKU            string           `json:"sku" validate:"required,max=255"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Barcode        *string          `json:"barcode,omitempty" validate:"omitempty,max=255"`
	Weight         *float64         `json:"weight,omitempty" validate:"omitempty,gte=0"`
	WeightUnit     *string          `json:"weight_unit,omitempty"`
}

type createImageRequest struct {
	SourceURL string  `json:"source_url" validate:"required,url"`
	AltText   *string `json:"alt_text,omitempty"`
	Position  int     `json:"position" validate:"omitempty,min=0"`
}

type bulkCreateRequest struct {
	Items []createProductRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

type updateProductRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string   `json:"description,omitempty"`
	Vendor      *string   `json:"vendor,omitempty"`
	ProductType *string   `json:"product_type,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Status      *string   `json:"status,omitempty"`
}

type updateVariantRequest struct {
	Price          *decimal.Decimal `json:"price,omitempty"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
}

type syncInventoryRequest struct {
	StoreID    string         `json:"store_id" validate:"required,uuid"`
	Quantities map[string]int `json:"quantities" validate:"required,min=1"`
}

func (r createProductRequest) toCreateInput() (productsvc.CreateProductInput, error) {
	brandID, err := uuid.Parse(r.BrandID)
	if err != nil {
		return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid brand id")
	}
	storeID, err := uuid.Parse(r.StoreID)
	if err != nil {
		return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store id")
	}

	input := productsvc.CreateProductInput{
		BrandID:     brandID,
		StoreID:     storeID,
		Title:       r.Title,
		Description: r.Description,
		Vendor:      r.Vendor,
		ProductType: r.ProductType,
		Tags:        r.Tags,
	}

	if r.Status != nil {
		status, err := enums.ParseProductStatus(strings.TrimSpace(*r.Status))
		if err != nil {
			return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = status
	}

	for _, v := range r.Variants {
		variant := productsvc.VariantInput{
			SKU:            v.SKU,
			Price:          v.Price,
			CompareAtPrice: v.CompareAtPrice,
			Barcode:        v.Barcode,
			Weight:         v.Weight,
		}
		if v.WeightUnit != nil {
			unit, err := enums.ParseWeightUnit(strings.TrimSpace(*v.WeightUnit))
			if err != nil {
				return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid weight unit")
			}
			variant.WeightUnit = unit
		}
		input.Variants = append(input.Variants, variant)
	}

	for _, img := range r.Images {
		input.Images = append(input.Images, productsvc.ImageInput{
			SourceURL: img.SourceURL,
			AltText:   img.AltText,
			Position:  img.Position,
		})
	}

	return input, nil
}

func (r updateProductRequest) toUpdateInput() (productsvc.UpdateProductInput, error) {
	input := productsvc.UpdateProductInput{
		Title:       r.Title,
		Description: r.Description,
		Vendor:      r.Vendor,
		ProductType: r.ProductType,
		Tags:        r.Tags,
	}
	if r.Status != nil {
		status, err := enums.ParseProductStatus(strings.TrimSpace(*r.Status))
		if err != nil {
			return productsvc.UpdateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	return input, nil
}

func (r syncInventoryRequest) toInput() (productsvc.InventorySyncInput, error) {
	storeID, err := uuid.Parse(r.StoreID)
	if err != nil {
		return productsvc.InventorySyncInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid store id")
	}

	quantities := make(map[uuid.UUID]int, len(r.Quantities))
	for raw, qty := range r.Quantities {
		variantID, err := uuid.Parse(raw)
		if err != nil {
			return productsvc.InventorySyncInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid variant id").
				WithDetails(map[string]any{"variant_id": raw})
		}
		if qty < 0 {
			return productsvc.InventorySyncInput{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative").
				WithDetails(map[string]any{"variant_id": raw})
		}
		quantities[variantID] = qty
	}

	return productsvc.InventorySyncInput{StoreID: storeID, Quantities: quantities}, nil
}

package products

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hooterhq/hooter-backend/pkg/db/models"
	"github.com/hooterhq/hooter-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CreateProductInput holds the validated payload to create and sync a product.
type CreateProductInput struct {
	BrandID     uuid.UUID
	StoreID     uuid.UUID
	Title       string
	Description string
	Vendor      *string
	ProductType *string
	Tags        []string
	Status      enums.ProductStatus
	Variants    []VariantInput
	Images      []ImageInput

	IdempotencyKey string
}

// VariantInput is one sellable unit in a create payload.
type VariantInput struct {
	SKU            string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Barcode        *string
	Weight         *float64
	WeightUnit     enums.WeightUnit
}

// ImageInput carries one gallery image. Position controls remote ordering,
// ascending, with ties broken by input order.
type ImageInput struct {
	SourceURL string
	AltText   *string
	Position  int
}

// UpdateProductInput holds the allow-listed mutable fields. Nil means leave
// the column untouched.
type UpdateProductInput struct {
	Title       *string
	Description *string
	Vendor      *string
	ProductType *string
	Tags        *[]string
	Status      *enums.ProductStatus
}

// ListProductsInput filters and pages the brand catalogue.
type ListProductsInput struct {
	BrandID uuid.UUID
	Status  *enums.ProductStatus
	Search  string
	Limit   int
	Offset  int
}

// CreateProductResult is the creation response. FailedImages lists source
// URLs that did not attach remotely; the product itself still succeeded.
type CreateProductResult struct {
	UID             uuid.UUID `json:"uid"`
	RemoteProductID string    `json:"remote_product_id"`
	ImagesCount     int       `json:"images_count"`
	Status          string    `json:"status"`
	FailedImages    []string  `json:"failed_images,omitempty"`
}

// BulkItemResult is the outcome of one entry in a bulk create request.
type BulkItemResult struct {
	Index  int                  `json:"index"`
	Result *CreateProductResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}

// VariantPricingInput patches one variant's price fields. Nil means leave
// the column untouched; at least one field must be set.
type VariantPricingInput struct {
	Price          *decimal.Decimal
	CompareAtPrice *decimal.Decimal
}

// InventorySyncInput maps variant IDs to on-hand quantities. Variants
// missing from the map sync to zero.
type InventorySyncInput struct {
	StoreID    uuid.UUID
	Quantities map[uuid.UUID]int
}

// InventorySyncResult reports the location used and per-variant rows written.
type InventorySyncResult struct {
	LocationID     string `json:"location_id"`
	VariantsSynced int    `json:"variants_synced"`
}

// ProductDTO is the outward shape of a catalogue product.
type ProductDTO struct {
	UID         uuid.UUID    `json:"uid"`
	BrandID     uuid.UUID    `json:"brand_id"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Vendor      *string      `json:"vendor,omitempty"`
	ProductType *string      `json:"product_type,omitempty"`
	Tags        []string     `json:"tags"`
	Status      string       `json:"status"`
	Variants    []VariantDTO `json:"variants"`
	Images      []ImageDTO   `json:"images"`
	ImagesCount int          `json:"images_count"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// VariantDTO is the outward shape of a product variant.
type VariantDTO struct {
	ID              uuid.UUID        `json:"id"`
	SKU             string           `json:"sku"`
	Price           decimal.Decimal  `json:"price"`
	CompareAtPrice  *decimal.Decimal `json:"compare_at_price,omitempty"`
	Barcode         *string          `json:"barcode,omitempty"`
	Weight          *float64         `json:"weight,omitempty"`
	WeightUnit      string           `json:"weight_unit"`
	Position        int              `json:"position"`
	RemoteVariantID *string          `json:"remote_variant_id,omitempty"`
}

// ChangeLogDTO is one entry of a product's change history, newest first.
type ChangeLogDTO struct {
	ID          uuid.UUID       `json:"id"`
	Action      string          `json:"action"`
	Source      string          `json:"source"`
	ActorUserID *uuid.UUID      `json:"actor_user_id,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ImageDTO is the outward shape of a product image.
type ImageDTO struct {
	ID            uuid.UUID `json:"id"`
	SourceURL     string    `json:"source_url"`
	AltText       *string   `json:"alt_text,omitempty"`
	Position      int       `json:"position"`
	RemoteMediaID *string   `json:"remote_media_id,omitempty"`
}

// ProductListResult pages the catalogue.
type ProductListResult struct {
	Products []ProductDTO `json:"products"`
	Total    int64        `json:"total"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
}

func toProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		UID:         product.UID,
		BrandID:     product.BrandID,
		Title:       product.Title,
		Description: product.BodyHTML,
		Vendor:      product.Vendor,
		ProductType: product.ProductType,
		Tags:        splitTags(product.Tags),
		Status:      product.Status.String(),
		Variants:    make([]VariantDTO, 0, len(product.Variants)),
		Images:      make([]ImageDTO, 0, len(product.Images)),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	for _, variant := range product.Variants {
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:              variant.ID,
			SKU:             variant.SKU,
			Price:           variant.Price,
			CompareAtPrice:  variant.CompareAtPrice,
			Barcode:         variant.Barcode,
			Weight:          variant.Weight,
			WeightUnit:      variant.WeightUnit.String(),
			Position:        variant.Position,
			RemoteVariantID: variant.RemoteVariantID,
		})
	}
	for _, image := range product.Images {
		dto.Images = append(dto.Images, ImageDTO{
			ID:            image.ID,
			SourceURL:     image.SourceURL,
			AltText:       image.AltText,
			Position:      image.Position,
			RemoteMediaID: image.RemoteMediaID,
		})
	}
	dto.ImagesCount = len(dto.Images)
	return dto
}

// Package shopifytest provides an in-memory API fake for service tests.
package shopifytest

import (
	"context"
	"fmt"
	"sync"

	"github.com/hooterhq/hooter-backend/pkg/shopify"
)

// FakeAPI implements shopify.API against in-memory state. Error fields, when
// set, are returned by the matching call. The zero value is not usable; use
// NewFakeAPI.
type FakeAPI struct {
	mu sync.Mutex

	LastCredentials shopify.Credentials

	ShopName    string
	ValidateErr error

	CreateErr       error
	FailCreateTimes int
	FailCreateWith  error
	CreateCalls     int
	CreatedProducts []shopify.ProductInput

	UpdateErr      error
	UpdatedInputs  map[string]shopify.ProductUpdate
	DeleteErr      error
	DeletedRemotes []string

	CreateVariantErr error
	CreatedVariants  []shopify.VariantInput
	UpdateVariantErr error
	UpdatedVariants  map[string]shopify.VariantUpdate
	DeleteVariantErr error
	DeletedVariants  []string

	nextVariantID int

	MediaErrsBySource map[string]error
	MediaByProduct    map[string][]shopify.MediaInput
	ReorderErr        error
	ReorderCalls      [][]string

	InvalidImageURLs map[string]error

	Locations        []shopify.Location
	ListLocationsErr error

	ActivateErr    error
	ActivatedPairs []string
	SetQuantityErr error
	Quantities     map[string]int

	nextProductID int
	nextMediaID   int
}

// NewFakeAPI returns a fake with one active location and a shop name set.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		ShopName: "Hooter Supply",
		Locations: []shopify.Location{
			{ID: "gid://shopify/Location/1", Name: "Main Warehouse", Active: true},
		},
		UpdatedInputs:     map[string]shopify.ProductUpdate{},
		UpdatedVariants:   map[string]shopify.VariantUpdate{},
		MediaErrsBySource: map[string]error{},
		MediaByProduct:    map[string][]shopify.MediaInput{},
		InvalidImageURLs:  map[string]error{},
		Quantities:        map[string]int{},
	}
}

func (f *FakeAPI) ValidateCredentials(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ValidateErr != nil {
		return "", f.ValidateErr
	}
	return f.ShopName, nil
}

func (f *FakeAPI) CreateProduct(ctx context.Context, input shopify.ProductInput) (*shopify.RemoteProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if f.FailCreateTimes > 0 {
		f.FailCreateTimes--
		return nil, f.FailCreateWith
	}
	f.CreatedProducts = append(f.CreatedProducts, input)
	f.nextProductID++

	remote := &shopify.RemoteProduct{
		ID: fmt.Sprintf("gid://shopify/Product/%d", f.nextProductID),
	}
	for i, variant := range input.Variants {
		remote.Variants = append(remote.Variants, shopify.RemoteVariant{
			ID:              fmt.Sprintf("gid://shopify/ProductVariant/%d%02d", f.nextProductID, i),
			SKU:             variant.SKU,
			InventoryItemID: fmt.Sprintf("gid://shopify/InventoryItem/%d%02d", f.nextProductID, i),
		})
	}
	return remote, nil
}

func (f *FakeAPI) UpdateProduct(ctx context.Context, remoteID string, update shopify.ProductUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.UpdatedInputs[remoteID] = update
	return nil
}

func (f *FakeAPI) DeleteProduct(ctx context.Context, remoteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.DeletedRemotes = append(f.DeletedRemotes, remoteID)
	return nil
}

func (f *FakeAPI) CreateVariant(ctx context.Context, remoteProductID string, input shopify.VariantInput) (*shopify.RemoteVariant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateVariantErr != nil {
		return nil, f.CreateVariantErr
	}
	f.CreatedVariants = append(f.CreatedVariants, input)
	f.nextVariantID++
	return &shopify.RemoteVariant{
		ID:              fmt.Sprintf("gid://shopify/ProductVariant/9%03d", f.nextVariantID),
		SKU:             input.SKU,
		InventoryItemID: fmt.Sprintf("gid://shopify/InventoryItem/9%03d", f.nextVariantID),
	}, nil
}

func (f *FakeAPI) UpdateVariant(ctx context.Context, remoteProductID, remoteVariantID string, update shopify.VariantUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateVariantErr != nil {
		return f.UpdateVariantErr
	}
	f.UpdatedVariants[remoteVariantID] = update
	return nil
}

func (f *FakeAPI) DeleteVariant(ctx context.Context, remoteProductID, remoteVariantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DeleteVariantErr != nil {
		return f.DeleteVariantErr
	}
	f.DeletedVariants = append(f.DeletedVariants, remoteVariantID)
	return nil
}

func (f *FakeAPI) CreateProductMedia(ctx context.Context, remoteID string, media shopify.MediaInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.MediaErrsBySource[media.SourceURL]; err != nil {
		return "", err
	}
	f.MediaByProduct[remoteID] = append(f.MediaByProduct[remoteID], media)
	f.nextMediaID++
	return fmt.Sprintf("gid://shopify/MediaImage/%d", f.nextMediaID), nil
}

func (f *FakeAPI) ReorderProductMedia(ctx context.Context, remoteID string, mediaIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReorderErr != nil {
		return f.ReorderErr
	}
	f.ReorderCalls = append(f.ReorderCalls, append([]string{remoteID}, mediaIDs...))
	return nil
}

func (f *FakeAPI) ValidateImageURL(ctx context.Context, sourceURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.InvalidImageURLs[sourceURL]
}

func (f *FakeAPI) ListLocations(ctx context.Context) ([]shopify.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListLocationsErr != nil {
		return nil, f.ListLocationsErr
	}
	return append([]shopify.Location(nil), f.Locations...), nil
}

func (f *FakeAPI) ActivateInventory(ctx context.Context, inventoryItemID, locationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ActivateErr != nil {
		return f.ActivateErr
	}
	f.ActivatedPairs = append(f.ActivatedPairs, inventoryItemID+"|"+locationID)
	return nil
}

func (f *FakeAPI) SetInventoryQuantity(ctx context.Context, inventoryItemID, locationID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetQuantityErr != nil {
		return f.SetQuantityErr
	}
	f.Quantities[inventoryItemID+"|"+locationID] = quantity
	return nil
}

var _ shopify.API = (*FakeAPI)(nil)

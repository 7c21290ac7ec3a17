package shopify

import "encoding/json"

// Credentials identify one connected shop. The access token arrives decrypted
// from the store vault.
type Credentials struct {
	ShopDomain  string
	AccessToken string
}

// VariantInput is the sellable unit payload for product mutations.
type VariantInput struct {
	SKU            string
	Price          string
	CompareAtPrice *string
	Barcode        *string
	Weight         *float64
	WeightUnit     string
}

// ProductInput is the payload for creating a product remotely.
type ProductInput struct {
	Title           string
	DescriptionHTML string
	Vendor          string
	ProductType     string
	Tags            []string
	Status          string
	Variants        []VariantInput
}

// ProductUpdate carries the allow-listed fields for a remote product update.
// Nil fields are left untouched.
type ProductUpdate struct {
	Title           *string
	DescriptionHTML *string
	Vendor          *string
	ProductType     *string
	Tags            []string
	Status          *string
}

// VariantUpdate carries the allow-listed price fields for a remote variant
// update. Nil fields are left untouched.
type VariantUpdate struct {
	Price          *string
	CompareAtPrice *string
}

// MediaInput describes one image to attach to a remote product.
type MediaInput struct {
	SourceURL string
	AltText   string
}

// RemoteVariant is the remote identity of a created variant.
type RemoteVariant struct {
	ID              string
	SKU             string
	InventoryItemID string
}

// RemoteProduct is the remote identity returned by a product create.
type RemoteProduct struct {
	ID       string
	Variants []RemoteVariant
}

// Location is a remote inventory location.
type Location struct {
	ID     string
	Name   string
	Active bool
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type userError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}

type throttleStatus struct {
	MaximumAvailable   float64 `json:"maximumAvailable"`
	CurrentlyAvailable float64 `json:"currentlyAvailable"`
	RestoreRate        float64 `json:"restoreRate"`
}

type costExtension struct {
	ThrottleStatus throttleStatus `json:"throttleStatus"`
}

type graphQLResponse struct {
	Data       json.RawMessage `json:"data"`
	Errors     []graphQLError  `json:"errors,omitempty"`
	Extensions struct {
		Cost costExtension `json:"cost"`
	} `json:"extensions"`
}

type remoteProductPayload struct {
	ID       string `json:"id"`
	Variants struct {
		Nodes []struct {
			ID            string `json:"id"`
			SKU           string `json:"sku"`
			InventoryItem struct {
				ID string `json:"id"`
			} `json:"inventoryItem"`
		} `json:"nodes"`
	} `json:"variants"`
}

type productCreateData struct {
	ProductCreate struct {
		Product    *remoteProductPayload `json:"product"`
		UserErrors []userError           `json:"userErrors,omitempty"`
	} `json:"productCreate"`
}

type productUpdateData struct {
	ProductUpdate struct {
		Product *struct {
			ID string `json:"id"`
		} `json:"product"`
		UserErrors []userError `json:"userErrors,omitempty"`
	} `json:"productUpdate"`
}

type variantsBulkCreateData struct {
	ProductVariantsBulkCreate struct {
		ProductVariants []struct {
			ID            string `json:"id"`
			SKU           string `json:"sku"`
			InventoryItem struct {
				ID string `json:"id"`
			} `json:"inventoryItem"`
		} `json:"productVariants,omitempty"`
		UserErrors []userError `json:"userErrors,omitempty"`
	} `json:"productVariantsBulkCreate"`
}

type variantsBulkUpdateData struct {
	ProductVariantsBulkUpdate struct {
		UserErrors []userError `json:"userErrors,omitempty"`
	} `json:"productVariantsBulkUpdate"`
}

type variantsBulkDeleteData struct {
	ProductVariantsBulkDelete struct {
		UserErrors []userError `json:"userErrors,omitempty"`
	} `json:"productVariantsBulkDelete"`
}

type productCreateMediaData struct {
	ProductCreateMedia struct {
		Media []struct {
			ID string `json:"id"`
		} `json:"media,omitempty"`
		MediaUserErrors []userError `json:"mediaUserErrors,omitempty"`
	} `json:"productCreateMedia"`
}

type productReorderMediaData struct {
	ProductReorderMedia struct {
		MediaUserErrors []userError `json:"mediaUserErrors,omitempty"`
	} `json:"productReorderMedia"`
}

type locationsData struct {
	Locations struct {
		Nodes []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			IsActive bool   `json:"isActive"`
		} `json:"nodes"`
	} `json:"locations"`
}

type inventoryActivateData struct {
	InventoryActivate struct {
		InventoryLevel *struct {
			ID string `json:"id"`
		} `json:"inventoryLevel"`
		UserErrors []userError `json:"userErrors,omitempty"`
	} `json:"inventoryActivate"`
}

type inventorySetData struct {
	InventorySetQuantities struct {
		UserErrors []userError `json:"userErrors,omitempty"`
	} `json:"inventorySetQuantities"`
}

type shopData struct {
	Shop struct {
		Name string `json:"name"`
	} `json:"shop"`
}

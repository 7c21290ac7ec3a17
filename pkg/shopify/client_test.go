package shopify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hooterhq/hooter-backend/pkg/config"
	pkgerrors "github.com/hooterhq/hooter-backend/pkg/errors"
	"github.com/hooterhq/hooter-backend/pkg/logger"
	"github.com/hooterhq/hooter-backend/pkg/retry"
)

func testShopifyConfig() config.ShopifyConfig {
	return config.ShopifyConfig{
		APIVersion:      "2024-07",
		GraphQLTimeout:  5 * time.Second,
		RESTTimeout:     5 * time.Second,
		ImageTimeout:    2 * time.Second,
		ThrottleReserve: 0.1,
	}
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	client, err := NewClient(testShopifyConfig(), Credentials{
		ShopDomain:  serverURL,
		AccessToken: "shpat_test",
	}, logg)
	require.NoError(t, err)
	return client
}

func graphqlHandler(t *testing.T, respond func(t *testing.T, req graphQLRequest) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Helper()
		assert.Equal(t, "/admin/api/2024-07/graphql.json", r.URL.Path)
		assert.Equal(t, "shpat_test", r.Header.Get("X-Shopify-Access-Token"))

		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, respond(t, req))
	}
}

func TestCreateProductParsesRemoteIdentity(t *testing.T) {
	server := httptest.NewServer(graphqlHandler(t, func(t *testing.T, req graphQLRequest) string {
		input, ok := req.Variables["input"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Blue Hoodie", input["title"])
		assert.Equal(t, "ACTIVE", input["status"])

		return `{
			"data": {
				"productCreate": {
					"product": {
						"id": "gid://shopify/Product/42",
						"variants": {"nodes": [
							{"id": "gid://shopify/ProductVariant/7", "sku": "HOOD-1", "inventoryItem": {"id": "gid://shopify/InventoryItem/9"}}
						]}
					},
					"userErrors": []
				}
			}
		}`
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	remote, err := client.CreateProduct(context.Background(), ProductInput{
		Title:  "Blue Hoodie",
		Status: "ACTIVE",
		Variants: []VariantInput{
			{SKU: "HOOD-1", Price: "39.99"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Product/42", remote.ID)
	require.Len(t, remote.Variants, 1)
	assert.Equal(t, "HOOD-1", remote.Variants[0].SKU)
	assert.Equal(t, "gid://shopify/InventoryItem/9", remote.Variants[0].InventoryItemID)
}

func TestCreateProductUserErrorsAreFatal(t *testing.T) {
	server := httptest.NewServer(graphqlHandler(t, func(t *testing.T, req graphQLRequest) string {
		return `{
			"data": {
				"productCreate": {
					"product": null,
					"userErrors": [{"field": ["variants", "0", "price"], "message": "Price cannot be negative"}]
				}
			}
		}`
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.CreateProduct(context.Background(), ProductInput{Title: "Bad"})
	require.Error(t, err)

	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeRemoteAPI, domainErr.Code())
	assert.Contains(t, domainErr.Details(), "Price cannot be negative")
	assert.False(t, retry.IsTransient(err))
}

func TestGraphQLThrottledErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(graphqlHandler(t, func(t *testing.T, req graphQLRequest) string {
		return `{"errors": [{"message": "Throttled", "extensions": {"code": "THROTTLED"}}]}`
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ValidateCredentials(context.Background())
	require.Error(t, err)
	assert.True(t, retry.IsTransient(err))
}

func TestServerErrorsAreTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ValidateCredentials(context.Background())
	require.Error(t, err)
	assert.True(t, retry.IsTransient(err))
}

func TestUnauthorizedIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ValidateCredentials(context.Background())
	require.Error(t, err)
	assert.False(t, retry.IsTransient(err))

	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, domainErr.Code())
}

func TestThrottleBackpressureSleeps(t *testing.T) {
	server := httptest.NewServer(graphqlHandler(t, func(t *testing.T, req graphQLRequest) string {
		return `{
			"data": {"shop": {"name": "Test Shop"}},
			"extensions": {"cost": {"throttleStatus": {"maximumAvailable": 1000, "currentlyAvailable": 50, "restoreRate": 50}}}
		}`
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	var slept []time.Duration
	client.sleep = func(ctx context.Context, delay time.Duration) error {
		slept = append(slept, delay)
		return nil
	}

	name, err := client.ValidateCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Test Shop", name)
	require.Len(t, slept, 1)
	// 50 points below the 100 point reserve at 50 points/sec plus padding.
	assert.Equal(t, 2*time.Second, slept[0])
}

func TestDeleteProductUsesRESTWithLegacyID(t *testing.T) {
	var gotPath, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.DeleteProduct(context.Background(), "gid://shopify/Product/42")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/admin/api/2024-07/products/42.json", gotPath)
}

func TestReorderProductMediaSkipsSingleImage(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.ReorderProductMedia(context.Background(), "gid://shopify/Product/42", []string{"gid://shopify/MediaImage/1"})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestValidateImageURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusOK)
		case "/not-image":
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	require.NoError(t, client.ValidateImageURL(context.Background(), server.URL+"/ok.png"))

	err := client.ValidateImageURL(context.Background(), server.URL+"/not-image")
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())

	assert.Error(t, client.ValidateImageURL(context.Background(), server.URL+"/missing.png"))
}

func TestLegacyIDFromGID(t *testing.T) {
	assert.Equal(t, "42", legacyIDFromGID("gid://shopify/Product/42"))
	assert.Equal(t, "42", legacyIDFromGID("42"))
	assert.Equal(t, "", legacyIDFromGID("  "))
}

func TestNewClientValidatesCredentials(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	_, err := NewClient(testShopifyConfig(), Credentials{AccessToken: "x"}, logg)
	assert.Error(t, err)

	_, err = NewClient(testShopifyConfig(), Credentials{ShopDomain: "shop.myshopify.com"}, logg)
	assert.Error(t, err)

	_, err = NewClient(testShopifyConfig(), Credentials{ShopDomain: "shop.myshopify.com", AccessToken: "x"}, nil)
	assert.Error(t, err)
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hooterhq/hooter-backend/api/controllers"
	"github.com/hooterhq/hooter-backend/api/middleware"
	brandsvc "github.com/hooterhq/hooter-backend/internal/brands"
	productsvc "github.com/hooterhq/hooter-backend/internal/products"
	storesvc "github.com/hooterhq/hooter-backend/internal/stores"
	webhooksvc "github.com/hooterhq/hooter-backend/internal/webhooks"
	"github.com/hooterhq/hooter-backend/pkg/config"
	"github.com/hooterhq/hooter-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	brandService brandsvc.Service,
	storeService storesvc.Service,
	productService productsvc.Service,
	reconciler *webhooksvc.Reconciler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/v1/webhooks/shopify", func(r chi.Router) {
		r.Post("/product-update", controllers.WebhookProductUpdate(reconciler, logg))
		r.Post("/inventory-update", controllers.WebhookInventoryUpdate(reconciler, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/brands", func(r chi.Router) {
			r.Post("/", controllers.BrandCreate(brandService, logg))
			r.Get("/", controllers.BrandList(brandService, logg))
			r.Route("/{brandId}", func(r chi.Router) {
				r.Get("/", controllers.BrandDetail(brandService, logg))
				r.Post("/access", controllers.BrandGrantAccess(brandService, logg))
				r.Delete("/access/{userId}", controllers.BrandRevokeAccess(brandService, logg))

				r.Route("/stores", func(r chi.Router) {
					r.Post("/", controllers.StoreRegister(storeService, logg))
					r.Get("/", controllers.StoreList(storeService, logg))
				})

				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.ProductList(productService, logg))
					r.Route("/{productUid}", func(r chi.Router) {
						r.Get("/", controllers.ProductDetail(productService, logg))
						r.Patch("/", controllers.ProductUpdate(productService, logg))
						r.Delete("/", controllers.ProductDelete(productService, logg))
						r.Post("/inventory/sync", controllers.ProductSyncInventory(productService, logg))
						r.Patch("/variants/{variantId}", controllers.ProductUpdateVariant(productService, logg))
						r.Get("/history", controllers.ProductHistory(productService, logg))
					})
				})
			})
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/{storeId}", controllers.StoreDetail(storeService, logg))
			r.Patch("/{storeId}/token", controllers.StoreRotateToken(storeService, logg))
			r.Post("/{storeId}/primary", controllers.StoreSetPrimary(storeService, logg))
			r.Delete("/{storeId}", controllers.StoreDisconnect(storeService, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductCreate(productService, logg))
			r.Post("/bulk", controllers.ProductBulkCreate(productService, logg))
		})
	})

	return r
}

package router

import (
	"net/http"

	"digicommerce/internal/handler"
	"digicommerce/internal/metrics"
	"digicommerce/internal/middleware"
	"digicommerce/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Catalog   *handler.CatalogHandler
	Carts     *handler.CartHandler
	Addresses *handler.AddressHandler
	Orders    *handler.OrderHandler
	Webhooks  *handler.WebhookHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// The health, metrics and webhook endpoints skip the API key; everything
// under /api/carts, /api/addresses and /api/orders also needs an identity.
func New(
	h Handlers,
	users service.UserService,
	m *metrics.Metrics,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> RealIP -> Logging -> Metrics -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Post("/api/webhooks/mercadopago", h.Webhooks.MercadoPago)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(apiKey, logger))

		r.Route("/api/public", func(r chi.Router) {
			r.Get("/categories", h.Catalog.ListCategories)
			r.Get("/categories/{categoryID}/products", h.Catalog.ListProductsByCategory)
			r.Get("/products", h.Catalog.ListProducts)
			r.Get("/products/keyword/{keyword}", h.Catalog.SearchProducts)
			r.Get("/products/{productID}", h.Catalog.GetProduct)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Post("/categories", h.Catalog.CreateCategory)
			r.Put("/categories/{categoryID}", h.Catalog.UpdateCategory)
			r.Delete("/categories/{categoryID}", h.Catalog.DeleteCategory)
			r.Post("/categories/{categoryID}/products", h.Catalog.CreateProduct)
			r.Put("/products/{productID}", h.Catalog.UpdateProduct)
			r.Put("/products/{productID}/image", h.Catalog.UpdateProductImage)
			r.Delete("/products/{productID}", h.Catalog.DeleteProduct)
			r.Get("/carts", h.Carts.ListAll)
			r.Get("/addresses", h.Addresses.ListAll)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(users, logger))

			r.Route("/api/carts", func(r chi.Router) {
				r.Get("/me", h.Carts.GetCart)
				r.Delete("/me", h.Carts.Clear)
				r.Post("/products/{productID}", h.Carts.AddItem)
				r.Put("/products/{productID}/quantity/{quantity}", h.Carts.SetQuantity)
				r.Delete("/products/{productID}", h.Carts.RemoveItem)
			})

			r.Route("/api/addresses", func(r chi.Router) {
				r.Post("/", h.Addresses.Create)
				r.Get("/", h.Addresses.ListMine)
				r.Get("/{addressID}", h.Addresses.Get)
				r.Put("/{addressID}", h.Addresses.Update)
				r.Delete("/{addressID}", h.Addresses.Delete)
			})

			r.Route("/api/orders", func(r chi.Router) {
				r.Post("/checkout", h.Orders.Checkout)
				r.Get("/", h.Orders.List)
				r.Get("/{orderID}", h.Orders.GetByID)
				r.Post("/{orderID}/preference", h.Orders.CreatePreference)
				r.Post("/{orderID}/pix", h.Orders.CreatePixCharge)
			})
		})
	})

	return otelhttp.NewHandler(r, "digicommerce")
}

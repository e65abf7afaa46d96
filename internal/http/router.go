package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/admin"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storefront"
)

type Deps struct {
	Logger           logrus.FieldLogger
	CORSAllowOrigins []string

	View  *storefront.View
	Admin *admin.Controller

	HealthProbes []clients.HealthProbe
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		d.Logger = l
	}
	h := &Handler{view: d.View, admin: d.Admin, probes: d.HealthProbes, log: d.Logger}

	r := chi.NewRouter()

	// Middlewares (outer -> inner)
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.CORS(d.CORSAllowOrigins))
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(d.Logger))

	r.Get("/health", h.Health)
	r.Get("/health/upstreams", h.Upstreams)

	r.Get("/catalog", h.Catalog)
	r.Post("/catalog/clear", h.ClearFilters)
	r.Post("/reload", h.Reload)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.OpenCart)
		r.Post("/items", h.AddItem)
		r.Delete("/items/{productId}", h.RemoveItem)
		r.Post("/close", h.CloseCart)
	})

	r.Post("/checkout", h.Checkout)
	r.Get("/checkout/return", h.CheckoutReturn)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.AdminLogin)
		r.Post("/logout", h.AdminLogout)
		r.Put("/search", h.AdminSearch)
		r.Put("/status", h.AdminStatus)
		r.Get("/products", h.AdminProducts)
		r.Post("/products", h.AdminCreate)
		r.Put("/products/{id}", h.AdminUpdate)
		r.Delete("/products/{id}", h.AdminDelete)
		r.Post("/products/{id}/toggle", h.AdminToggle)
	})

	return r
}

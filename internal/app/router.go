package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/vetstock-erp/vetstock/internal/audit"
	"github.com/vetstock-erp/vetstock/internal/auth"
	"github.com/vetstock-erp/vetstock/internal/billing"
	"github.com/vetstock-erp/vetstock/internal/delivery"
	"github.com/vetstock-erp/vetstock/internal/inventory"
	"github.com/vetstock-erp/vetstock/internal/issues"
	"github.com/vetstock-erp/vetstock/internal/masterdata/categories"
	"github.com/vetstock-erp/vetstock/internal/masterdata/customers"
	"github.com/vetstock-erp/vetstock/internal/masterdata/products"
	"github.com/vetstock-erp/vetstock/internal/masterdata/suppliers"
	"github.com/vetstock-erp/vetstock/internal/notify"
	"github.com/vetstock-erp/vetstock/internal/orders"
	"github.com/vetstock-erp/vetstock/internal/rbac"
	"github.com/vetstock-erp/vetstock/internal/reports"
	"github.com/vetstock-erp/vetstock/internal/users"
	"github.com/vetstock-erp/vetstock/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Config *Config

	AuthService *auth.Service
	RBAC        rbac.Middleware

	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	CategoriesHandler *categories.Handler
	ProductsHandler   *products.Handler
	SuppliersHandler  *suppliers.Handler
	CustomersHandler  *customers.Handler
	OrdersHandler     *orders.Handler
	DeliveryHandler   *delivery.Handler
	InventoryHandler  *inventory.Handler
	IssuesHandler     *issues.Handler
	BillingHandler    *billing.Handler
	ReportsHandler    *reports.Handler
	AuditHandler      *audit.Handler
	NotifyHandler     *notify.Handler
	JobsHandler       *jobs.Handler
}

// NewRouter constructs the chi router. Everything except login and the
// health probe sits behind the auth middleware; user administration is
// additionally gated on the superadmin role.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(params.Config) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		// Login gets a tighter rate limit than the global one.
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			params.AuthHandler.MountRoutes(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(params.AuthService))
			params.AuthHandler.MountProtectedRoutes(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(params.AuthService))

		r.Route("/users", func(r chi.Router) {
			r.Use(params.RBAC.Require(rbac.RoleSuperadmin))
			params.UsersHandler.MountRoutes(r)
		})

		r.Route("/masterdata", func(r chi.Router) {
			r.Route("/categories", params.CategoriesHandler.MountRoutes)
			r.Route("/products", params.ProductsHandler.MountRoutes)
			r.Route("/suppliers", params.SuppliersHandler.MountRoutes)
			r.Route("/customers", params.CustomersHandler.MountRoutes)
		})

		r.Route("/orders", params.OrdersHandler.MountRoutes)
		r.Route("/deliveries", params.DeliveryHandler.MountRoutes)
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		r.Route("/issues", params.IssuesHandler.MountRoutes)
		r.Route("/billing/invoices", params.BillingHandler.MountRoutes)

		r.Route("/reports", func(r chi.Router) {
			r.Use(httprate.Limit(30, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
			params.ReportsHandler.MountRoutes(r)
		})

		r.Route("/audit", func(r chi.Router) {
			r.Use(params.RBAC.Require(rbac.RoleAdmin))
			params.AuditHandler.MountRoutes(r)
		})

		if params.JobsHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				r.Use(params.RBAC.Require(rbac.RoleAdmin))
				params.JobsHandler.MountRoutes(r)
			})
		}

		r.Get("/ws", params.NotifyHandler.ServeWS)
	})

	return r
}

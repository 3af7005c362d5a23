package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/hongfa/admin-api/app/observability/metrics"
	"github.com/hongfa/admin-api/internal/api"
	"github.com/hongfa/admin-api/internal/api/auth"
	"github.com/hongfa/admin-api/internal/container"
	"github.com/hongfa/admin-api/internal/types"
)

// SetupRouter wires the full route table. Server-wide middleware (request ID,
// logger, recoverer) is applied in main.go before mounting this router.
func SetupRouter(c *container.Container, m *metrics.AppMetrics) chi.Router {
	r := chi.NewRouter()
	cfg := c.Config
	logger := c.Logger

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Frontend.URL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if m != nil {
		r.Use(m.Middleware)
	}

	authenticate := auth.Authenticate(c.AuthService, cfg.JWT, logger)
	requireManager := auth.RequireManager(logger)
	requireAdmin := auth.RequireAdmin(logger)

	r.Get("/metrics", metrics.Handler().ServeHTTP)
	r.Get("/api/health", func(w http.ResponseWriter, req *http.Request) {
		api.WriteJSONResponse(w, req, http.StatusOK, types.Response{
			Success: true,
			Message: "OK",
		})
	})

	// Stored uploads are public once their random name is known.
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Uploads.Dir)))
	r.Get("/uploads/*", fileServer.ServeHTTP)

	// Live admin events; the socket is only reachable with a valid token.
	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/ws", c.WSHandler.ServeHTTP)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimit.Requests, cfg.RateLimit.Window))

		// Public routes.
		r.Post("/auth/login", c.AuthHandler.Login)
		r.Get("/products", c.ProductHandler.List)
		r.Get("/products/categories/all", c.ProductHandler.Categories)
		r.Get("/products/{productID}", c.ProductHandler.Get)
		r.Get("/orders", c.OrderHandler.List)
		r.Get("/orders/stats/overview", c.OrderHandler.Stats)
		r.Get("/orders/{orderID}", c.OrderHandler.Get)

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/auth/logout", c.AuthHandler.Logout)
			r.Get("/auth/profile", c.AuthHandler.GetProfile)
			r.Put("/auth/profile", c.AuthHandler.UpdateProfile)
			r.Put("/auth/change-password", c.AuthHandler.ChangePassword)

			// Catalog, order and stock writes need at least a manager.
			r.Group(func(r chi.Router) {
				r.Use(requireManager)

				r.Post("/products", c.ProductHandler.Create)
				r.Put("/products/{productID}", c.ProductHandler.Update)
				r.Delete("/products/{productID}", c.ProductHandler.Delete)
				r.Post("/products/{productID}/images", c.ProductHandler.UploadImages)

				r.Post("/orders", c.OrderHandler.Create)
				r.Put("/orders/{orderID}/status", c.OrderHandler.UpdateStatus)

				r.Get("/customers", c.CustomerHandler.List)
				r.Get("/customers/{customerID}", c.CustomerHandler.Get)
				r.Post("/customers", c.CustomerHandler.Create)
				r.Put("/customers/{customerID}", c.CustomerHandler.Update)
				r.Delete("/customers/{customerID}", c.CustomerHandler.Delete)

				r.Get("/inventory", c.InventoryHandler.Overview)
				r.Post("/inventory/adjust", c.InventoryHandler.AdjustStock)
				r.Post("/inventory/reorder-point", c.InventoryHandler.SetReorderPoint)
				r.Get("/inventory/alerts", c.InventoryHandler.Alerts)
				r.Get("/inventory/transactions", c.InventoryHandler.Transactions)

				r.Get("/analytics/dashboard/overview", c.AnalyticsHandler.DashboardOverview)
				r.Get("/analytics/sales", c.AnalyticsHandler.SalesReport)
				r.Get("/analytics/customers", c.AnalyticsHandler.CustomerReport)
				r.Get("/analytics/inventory", c.AnalyticsHandler.InventoryReport)
				r.Get("/analytics/comprehensive", c.AnalyticsHandler.ComprehensiveReport)
				r.Post("/analytics/activity", c.AnalyticsHandler.TrackActivity)

				r.Post("/upload/single", c.UploadHandler.Single)
				r.Post("/upload/multiple", c.UploadHandler.Multiple)
				r.Post("/upload/product-images", c.UploadHandler.ProductImages)
				r.Get("/upload", c.UploadHandler.List)
				r.Get("/upload/{filename}/info", c.UploadHandler.Info)
				r.Delete("/upload/{filename}", c.UploadHandler.Delete)
			})

			// Account management and system settings are admin territory.
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Get("/users", c.UserHandler.List)
				r.Get("/users/{userID}", c.UserHandler.Get)
				r.Post("/users", c.UserHandler.Create)
				r.Put("/users/{userID}", c.UserHandler.Update)
				r.Delete("/users/{userID}", c.UserHandler.Delete)
				r.Post("/users/{userID}/reset-password", c.UserHandler.ResetPassword)
				r.Post("/users/bulk", c.UserHandler.Bulk)

				r.Get("/settings", c.SettingsHandler.Get)
				r.Put("/settings", c.SettingsHandler.Update)
				r.Get("/settings/system", c.SettingsHandler.SystemInfo)
				r.Get("/settings/database", c.SettingsHandler.DatabaseStats)
				r.Post("/settings/cache/clear", c.SettingsHandler.ClearCache)
				r.Post("/settings/backup", c.SettingsHandler.Backup)
			})
		})
	})

	return r
}

package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Brandonkhumalo/ShopSync/internal/config"
	"github.com/Brandonkhumalo/ShopSync/internal/handler"
	"github.com/Brandonkhumalo/ShopSync/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP routes and middleware. Licensing and shop
// registration stay outside the license guard so a fresh installation
// can register and activate; everything touching shop data sits behind
// it.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	licenses service.LicenseService,
	health handler.HealthHandler,
	shops handler.ShopHandler,
	items handler.ItemHandler,
	sales handler.SaleHandler,
	debts handler.DebtHandler,
	sync handler.SyncHandler,
	license handler.LicenseHandler,
	admin handler.AdminHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handler.AppIDHeader},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		health.RegisterRoutes(api)
		shops.RegisterRoutes(api)
		license.RegisterRoutes(api)
		admin.RegisterLogin(api)

		// shop data and sync: licensed devices only
		api.Group(func(gr chi.Router) {
			gr.Use(LicenseGuard(licenses))
			items.RegisterRoutes(gr)
			sales.RegisterRoutes(gr)
			debts.RegisterRoutes(gr)
			sync.RegisterRoutes(gr)
		})

		// dashboard: admin bearer token
		api.Group(func(ar chi.Router) {
			ar.Use(AdminAuthMiddleware(cfg.JWTSecret))
			admin.RegisterRoutes(ar)
		})
	})

	return r
}

package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/bomcatalog-backend/api/controllers"
	"github.com/angelmondragon/bomcatalog-backend/api/middleware"
	"github.com/angelmondragon/bomcatalog-backend/internal/auth"
	"github.com/angelmondragon/bomcatalog-backend/internal/catalog"
	"github.com/angelmondragon/bomcatalog-backend/internal/lifecycle"
	"github.com/angelmondragon/bomcatalog-backend/pkg/auth/session"
	"github.com/angelmondragon/bomcatalog-backend/pkg/config"
	"github.com/angelmondragon/bomcatalog-backend/pkg/enums"
	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
	"github.com/angelmondragon/bomcatalog-backend/pkg/metrics"
)

// RateLimiter is the fixed-window counter behind login throttling.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Params carries everything the router wires into handlers. Optional fields
// (RateLimiter, HTTPMetrics, MetricsHandler, readiness checks) may be nil.
type Params struct {
	Config         *config.Config
	Logger         *logger.Logger
	Readiness      map[string]controllers.Pinger
	RateLimiter    RateLimiter
	Sessions       session.AccessSessionChecker
	Auth           auth.Service
	Catalog        catalog.Service
	Lifecycle      lifecycle.Service
	Cart           controllers.CartLedger
	Media          controllers.MediaRegistry
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Readiness))
	})
	if p.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", p.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Get("/roots", controllers.ItemRoots(p.Catalog, logg))
			r.Get("/{itemId}", controllers.ItemGet(p.Catalog, logg))
			r.Get("/{itemId}/children", controllers.ItemChildren(p.Catalog, logg))
			r.Get("/{itemId}/media", controllers.ItemMediaList(p.Media, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartList(p.Cart, logg))
			r.Delete("/", controllers.CartClear(p.Cart, logg))
			r.Post("/lines", controllers.CartAddLine(p.Cart, logg))
			r.Delete("/lines/{lineId}", controllers.CartRemoveLine(p.Cart, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimiter, logg)).Post("/auth/login", controllers.AdminAuthLogin(p.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
				r.Post("/auth/logout", controllers.AdminAuthLogout(p.Auth, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(enums.AdminRoleAdmin.String(), logg))

					r.Post("/items", controllers.AdminItemCreate(p.Lifecycle, logg))
					r.Patch("/items/{itemId}", controllers.AdminItemUpdate(p.Lifecycle, logg))
					r.Delete("/items/{itemId}", controllers.AdminItemDelete(p.Lifecycle, logg))
					r.Post("/items/{itemId}/media", controllers.AdminMediaUpload(p.Media, cfg.Media.MaxUploadBytes(), logg))

					r.Post("/edges", controllers.AdminEdgeCreate(p.Lifecycle, logg))
					r.Delete("/edges/{edgeId}", controllers.AdminEdgeDelete(p.Lifecycle, logg))

					r.Get("/media/usage", controllers.AdminMediaUsage(p.Media, logg))
					r.Delete("/media/{mediaId}", controllers.AdminMediaDelete(p.Media, logg))
				})
			})
		})
	})

	return r
}

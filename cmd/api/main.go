package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/bomcatalog-backend/api/controllers"
	"github.com/angelmondragon/bomcatalog-backend/api/routes"
	"github.com/angelmondragon/bomcatalog-backend/internal/admins"
	"github.com/angelmondragon/bomcatalog-backend/internal/auth"
	"github.com/angelmondragon/bomcatalog-backend/internal/cart"
	"github.com/angelmondragon/bomcatalog-backend/internal/catalog"
	"github.com/angelmondragon/bomcatalog-backend/internal/lifecycle"
	"github.com/angelmondragon/bomcatalog-backend/internal/media"
	"github.com/angelmondragon/bomcatalog-backend/pkg/auth/session"
	"github.com/angelmondragon/bomcatalog-backend/pkg/config"
	"github.com/angelmondragon/bomcatalog-backend/pkg/db"
	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
	"github.com/angelmondragon/bomcatalog-backend/pkg/metrics"
	"github.com/angelmondragon/bomcatalog-backend/pkg/migrate"
	"github.com/angelmondragon/bomcatalog-backend/pkg/redis"
	"github.com/angelmondragon/bomcatalog-backend/pkg/storage/backend"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	store, err := backend.Open(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(context.Background(), "error closing storage", err)
		}
	}()

	adminRepo := admins.NewRepository(dbClient.DB())
	if _, err := admins.EnsureSeed(context.Background(), adminRepo, cfg.Admin, cfg.Password, logg); err != nil {
		logg.Error(context.Background(), "failed to seed admin", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		AdminRepo:      adminRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		Password:       cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	ledger, err := cart.NewLedger(cart.NewRepository(dbClient.DB()), catalogRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart ledger", err)
		os.Exit(1)
	}

	mediaRegistry, err := media.NewRegistry(media.RegistryParams{
		Repo:       media.NewRepository(dbClient.DB()),
		Items:      catalogRepo,
		Tx:         dbClient,
		Store:      store.Store,
		QuotaBytes: cfg.Media.QuotaBytes,
		Metrics:    metrics.NewMediaMetrics(registry),
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create media registry", err)
		os.Exit(1)
	}

	lifecycleService, err := lifecycle.NewService(dbClient, catalogRepo, ledger, mediaRegistry, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create lifecycle service", err)
		os.Exit(1)
	}

	readiness := map[string]controllers.Pinger{
		"db":    dbClient,
		"redis": redisClient,
	}
	if store.Pinger != nil {
		readiness["storage"] = store.Pinger
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:         cfg,
			Logger:         logg,
			Readiness:      readiness,
			RateLimiter:    redisClient,
			Sessions:       sessionManager,
			Auth:           authService,
			Catalog:        catalogService,
			Lifecycle:      lifecycleService,
			Cart:           ledger,
			Media:          mediaRegistry,
			HTTPMetrics:    metrics.NewHTTPMetrics(registry),
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": cfg.Storage.Backend,
	})
	logg.Info(ctx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kleinod-atelier/storefront/internal/analytics"
	"github.com/kleinod-atelier/storefront/internal/api"
	"github.com/kleinod-atelier/storefront/internal/api/handlers"
	"github.com/kleinod-atelier/storefront/internal/config"
	"github.com/kleinod-atelier/storefront/internal/content"
	"github.com/kleinod-atelier/storefront/internal/feed"
	"github.com/kleinod-atelier/storefront/internal/locale"
	"github.com/kleinod-atelier/storefront/internal/newsletter"
	"github.com/kleinod-atelier/storefront/internal/repository"
	"github.com/kleinod-atelier/storefront/internal/repository/postgres"
	"github.com/kleinod-atelier/storefront/internal/shopify"
	"github.com/kleinod-atelier/storefront/internal/storefront"
	"github.com/kleinod-atelier/storefront/internal/view"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.IsProduction() {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.WithOptions(zap.IncreaseLevel(level))
	}
	defer logger.Sync()

	logger.Info("Starting storefront server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("store_domain", cfg.Storefront.StoreDomain),
	)

	// Persistence is optional; without a database every record is dropped
	repos := repository.NewNoop()
	if cfg.Database.Enabled {
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := postgres.RunMigrations(context.Background(), db, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		repos = postgres.NewRepositories(db, logger)
	}

	catalog := content.Default()
	client := shopify.NewClient(cfg.Storefront, logger)

	renderer, err := view.New(logger)
	if err != nil {
		logger.Fatal("Failed to parse templates", zap.Error(err))
	}
	pages, err := view.LoadStaticPages()
	if err != nil {
		logger.Fatal("Failed to render static pages", zap.Error(err))
	}

	relay := analytics.NewRelay(cfg.Analytics.RelayURL, repos.Event, logger)
	env := &handlers.Env{
		Config: cfg,
		Storefront: storefront.NewService(client, catalog, storefront.Options{
			StoreDomain:     cfg.Storefront.StoreDomain,
			DeferredTimeout: cfg.DeferredTimeout,
		}, logger),
		Renderer:   renderer,
		Locales:    locale.NewResolver(catalog.Locales),
		Newsletter: newsletter.NewService(cfg.Newsletter, repos.Subscription, logger),
		Relay:      relay,
		Feed:       feed.NewGenerator(client, cfg.BaseURL, cfg.FeedCacheTTL, logger),
		Pages:      pages,
	}

	// Initialize router
	router := api.NewRouter(env, logger)

	// Create HTTP server; the write timeout leaves room for streamed pages
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	relay.Wait()

	logger.Info("Server exited")
}

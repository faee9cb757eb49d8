// Package main is the entry point for the rental-manager API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/auth"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/item"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/location"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/inventory"
	v1 "github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/http/v1"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/http/v1/middleware"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres/catalog_repo"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres/inventory_repo"
	"github.com/tluanga-dev/rental-manager-sub001/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting rental-manager server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	stockRepo := inventory_repo.NewStockRepo(txManager)
	unitRepo := inventory_repo.NewUnitRepo(txManager)
	itemRepo := catalog_repo.NewItemRepo(txManager)
	locationRepo := catalog_repo.NewLocationRepo(txManager)

	// --- Services ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	inventoryService := inventory.NewService(stockRepo, unitRepo, itemRepo, locationRepo, txManager).
		WithAudit(auditService)
	itemService := item.NewService(itemRepo)
	locationService := location.NewService(locationRepo)

	// --- Auth ---
	var tokenValidator middleware.TokenValidator
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		tokenValidator = auth.NewJWTService(auth.DefaultJWTConfig(secret))
	} else {
		log.Warn("JWT_SECRET not set, API runs unauthenticated")
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:             pool,
		Logger:           log,
		TokenValidator:   tokenValidator,
		InventoryService: inventoryService,
		AuditService:     auditService,
		ItemService:      itemService,
		LocationService:  locationService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

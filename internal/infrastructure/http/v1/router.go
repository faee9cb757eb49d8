// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/item"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/location"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/inventory"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/http/v1/handlers"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/http/v1/middleware"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres"
	"github.com/tluanga-dev/rental-manager-sub001/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (used by health checks).
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// TokenValidator validates access tokens. When nil, all endpoints run
	// unauthenticated with the "system" actor.
	TokenValidator middleware.TokenValidator

	// InventoryService executes stock operations.
	InventoryService *inventory.Service

	// AuditService serves the operation audit trail.
	AuditService *postgres.AuditService

	// ItemService and LocationService serve the master-data catalogs.
	ItemService     *item.Service
	LocationService *location.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	apiV1 := router.Group("/api/v1")
	if cfg.TokenValidator != nil {
		apiV1.Use(middleware.Auth(cfg.TokenValidator))
	}

	// Stock operations
	{
		handler := handlers.NewInventoryHandler(baseHandler, cfg.InventoryService)
		handler.RegisterRoutes(apiV1.Group("/inventory"))
	}

	// Stock reads: levels, availability, ledger, audit trail
	{
		handler := handlers.NewStockHandler(baseHandler, cfg.InventoryService, cfg.AuditService)
		handler.RegisterRoutes(apiV1.Group("/stock"))
	}

	// Master data
	{
		handler := handlers.NewCatalogHandler(baseHandler, cfg.ItemService, cfg.LocationService)
		handler.RegisterRoutes(apiV1.Group("/catalog"))
	}

	return router
}

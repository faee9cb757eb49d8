// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	appctx "github.com/tluanga-dev/rental-manager-sub001/internal/core/context"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/item"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/location"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/inventory"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres/catalog_repo"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres/inventory_repo"
	"github.com/tluanga-dev/rental-manager-sub001/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := appctx.WithActor(context.Background(), appctx.Actor{UserID: "seed"})

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	itemRepo := catalog_repo.NewItemRepo(txManager)
	locationRepo := catalog_repo.NewLocationRepo(txManager)
	stockRepo := inventory_repo.NewStockRepo(txManager)
	unitRepo := inventory_repo.NewUnitRepo(txManager)

	itemService := item.NewService(itemRepo)
	locationService := location.NewService(locationRepo)
	inventoryService := inventory.NewService(stockRepo, unitRepo, itemRepo, locationRepo, txManager)

	if err := seedDemoData(ctx, log, itemService, locationService, inventoryService); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedDemoData(
	ctx context.Context,
	log *logger.Logger,
	items *item.Service,
	locations *location.Service,
	inv *inventory.Service,
) error {
	store, err := getOrCreateLocation(ctx, locations, "MAIN", "Main Street Store", location.TypeStore)
	if err != nil {
		return err
	}
	if _, err := getOrCreateLocation(ctx, locations, "WH1", "Central Warehouse", location.TypeWarehouse); err != nil {
		return err
	}

	camera, err := getOrCreateItem(ctx, items, "CAM", "Mirrorless Camera Kit", true, 1450, 85)
	if err != nil {
		return err
	}
	cable, err := getOrCreateItem(ctx, items, "CBL", "HDMI Cable 2m", false, 12, 2)
	if err != nil {
		return err
	}

	// Opening stock: three serialized cameras, a batch of cables.
	if _, err := inv.UpdateStockForPurchase(ctx, inventory.PurchaseInput{
		ItemID:        camera.ID,
		LocationID:    store.ID,
		Quantity:      types.NewQuantityFromInt(3),
		UnitCost:      types.NewMoney(900),
		TaxRate:       types.NewMoney(10),
		ConditionCode: "A",
		SerialNumbers: []string{"CAM-SN-001", "CAM-SN-002", "CAM-SN-003"},
		Notes:         "opening stock",
	}); err != nil {
		if apperror.IsDuplicate(err) {
			log.Info("camera opening stock already seeded")
		} else {
			return err
		}
	}

	if _, err := inv.UpdateStockForPurchase(ctx, inventory.PurchaseInput{
		ItemID:        cable.ID,
		LocationID:    store.ID,
		Quantity:      types.NewQuantityFromInt(50),
		UnitCost:      types.NewMoney(6),
		ConditionCode: "A",
		Notes:         "opening stock",
	}); err != nil {
		return err
	}

	log.Infow("demo data seeded", "store", store.Code, "items", 2)
	return nil
}

func getOrCreateLocation(
	ctx context.Context,
	svc *location.Service,
	code, name string,
	locType location.LocationType,
) (*location.Location, error) {
	loc := location.NewLocation(code, name, locType)
	if err := svc.Create(ctx, loc); err != nil {
		if apperror.IsDuplicate(err) {
			return svc.GetByCode(ctx, code)
		}
		return nil, err
	}
	return loc, nil
}

func getOrCreateItem(
	ctx context.Context,
	svc *item.Service,
	sku, name string,
	serialRequired bool,
	salePrice, rentalRate float64,
) (*item.Item, error) {
	it := item.NewItem(sku, name, serialRequired)
	it.DefaultSalePrice = types.NewMoney(salePrice)
	it.DefaultRentalRate = types.NewMoney(rentalRate)
	if err := svc.Create(ctx, it); err != nil {
		if apperror.IsDuplicate(err) {
			return svc.GetBySKU(ctx, sku)
		}
		return nil, err
	}
	return it, nil
}

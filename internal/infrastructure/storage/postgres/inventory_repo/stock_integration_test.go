package inventory_repo_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres/inventory_repo"
)

// setupTestDB connects to a dedicated test database and wipes the inventory
// tables. Set TEST_DATABASE_URL (never the live DSN) and apply migrations/
// before running; without it the test is skipped.
func setupTestDB(t *testing.T) (*postgres.Pool, *postgres.TxManager) {
	t.Helper()
	_ = godotenv.Load("../../../../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database integration test")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx,
		`TRUNCATE TABLE stock_audit, stock_movements, inventory_units, stock_levels, items, locations CASCADE`)
	require.NoError(t, err)

	return pool, postgres.NewTxManager(pool)
}

func seedItemAndLocation(t *testing.T, pool *postgres.Pool) (id.ID, id.ID) {
	t.Helper()
	ctx := context.Background()
	itemID, locationID := id.New(), id.New()

	_, err := pool.Exec(ctx,
		`INSERT INTO items (id, sku, name) VALUES ($1, 'CAM', 'Camera')`, itemID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx,
		`INSERT INTO locations (id, code, name, type) VALUES ($1, 'MAIN', 'Main Store', 'store')`, locationID)
	require.NoError(t, err)

	return itemID, locationID
}

// Concurrent first-writers of a fresh (item, location) pair must converge on
// exactly one row: the loser's ON CONFLICT insert is a no-op and its locked
// re-read blocks until the winner commits.
func TestGetOrCreateLevelConcurrentFirstUse(t *testing.T) {
	pool, txManager := setupTestDB(t)
	itemID, locationID := seedItemAndLocation(t, pool)
	repo := inventory_repo.NewStockRepo(txManager)
	ctx := context.Background()

	const writers = 4
	results := make([]id.ID, writers)
	errs := make([]error, writers)

	var start sync.WaitGroup
	start.Add(1)
	var done sync.WaitGroup
	for i := 0; i < writers; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			start.Wait()
			errs[i] = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
				level, err := repo.GetOrCreateLevel(ctx, itemID, locationID, "tester")
				if err != nil {
					return err
				}
				results[i] = level.ID
				return nil
			})
		}(i)
	}
	start.Done()
	done.Wait()

	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i], "writer %d", i)
		assert.Equal(t, results[0], results[i], "writer %d saw a different row", i)
	}

	var count int
	err := pool.QueryRow(ctx,
		`SELECT count(*) FROM stock_levels WHERE item_id = $1 AND location_id = $2`,
		itemID, locationID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetOrCreateLevelReusesExistingRow(t *testing.T) {
	pool, txManager := setupTestDB(t)
	itemID, locationID := seedItemAndLocation(t, pool)
	repo := inventory_repo.NewStockRepo(txManager)
	ctx := context.Background()

	var first, second id.ID
	require.NoError(t, txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		level, err := repo.GetOrCreateLevel(ctx, itemID, locationID, "tester")
		if err != nil {
			return err
		}
		first = level.ID
		return nil
	}))
	require.NoError(t, txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		level, err := repo.GetOrCreateLevel(ctx, itemID, locationID, "tester")
		if err != nil {
			return err
		}
		second = level.ID
		return nil
	}))

	assert.Equal(t, first, second)
}

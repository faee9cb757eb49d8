package postgres_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/inventory"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres"
)

func setupAuditTestDB(t *testing.T) (*postgres.Pool, *postgres.TxManager) {
	t.Helper()
	_ = godotenv.Load("../../../../.env")

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database integration test")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE TABLE stock_audit`)
	require.NoError(t, err)

	return pool, postgres.NewTxManager(pool)
}

func TestAuditRecordRoundTrip(t *testing.T) {
	_, txManager := setupAuditTestDB(t)
	audit, err := postgres.NewAuditService(txManager)
	require.NoError(t, err)
	ctx := context.Background()

	itemID, locationID := id.New(), id.New()
	require.NoError(t, audit.Record(ctx, inventory.AuditEntry{
		Operation:  "stock.purchase",
		ItemID:     itemID,
		LocationID: locationID,
		Meta:       map[string]any{"quantity": "5.0000"},
	}))
	// Oversized payload takes the compressed path.
	require.NoError(t, audit.Record(ctx, inventory.AuditEntry{
		Operation:  "stock.adjustment",
		ItemID:     itemID,
		LocationID: locationID,
		Meta:       map[string]any{"reason": strings.Repeat("cycle count ", 2000)},
	}))

	entries, err := audit.GetItemHistory(ctx, itemID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "stock.adjustment", entries[0].Operation)
	assert.Equal(t, strings.Repeat("cycle count ", 2000), entries[0].Meta["reason"])
	assert.Equal(t, "stock.purchase", entries[1].Operation)
	assert.Equal(t, "5.0000", entries[1].Meta["quantity"])
	assert.Equal(t, itemID, entries[1].ItemID)
}

package inventory

import (
	"context"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
)

// StockRepository persists stock levels and the movement ledger.
// All mutating methods must be called inside a transaction managed by
// tx.Manager; GetLevelForUpdate and GetOrCreateLevel take a row lock that
// serializes concurrent writers of the same (item, location) pair.
type StockRepository interface {
	// GetLevel returns the level, or apperror NotFound if none exists.
	GetLevel(ctx context.Context, itemID, locationID id.ID) (*StockLevel, error)

	// GetLevelForUpdate returns the level with a FOR UPDATE row lock.
	GetLevelForUpdate(ctx context.Context, itemID, locationID id.ID) (*StockLevel, error)

	// GetOrCreateLevel returns the locked level, lazily creating an empty
	// row on first use. The unique (item_id, location_id) constraint
	// guarantees exactly one row survives concurrent first-writers; the
	// losing writer retries as a locked read.
	GetOrCreateLevel(ctx context.Context, itemID, locationID id.ID, actor string) (*StockLevel, error)

	// UpdateLevel writes back all quantity partitions of a level.
	UpdateLevel(ctx context.Context, level *StockLevel) error

	// InsertMovement appends one immutable ledger row.
	InsertMovement(ctx context.Context, movement StockMovement) error

	// LatestQuantityAfter returns the quantity_after of the most recent
	// movement for the item across all locations, and false if the item
	// has no movements yet. This is the authoritative source for the next
	// movement's quantity_before.
	LatestQuantityAfter(ctx context.Context, itemID id.ID) (types.Quantity, bool, error)

	// ListMovements returns ledger history for an item.
	ListMovements(ctx context.Context, itemID id.ID, filter MovementFilter) ([]StockMovement, error)
}

// UnitRepository persists the inventory unit registry.
type UnitRepository interface {
	// InsertUnits bulk-inserts new units. Unique-constraint violations on
	// sku/serial_number/batch_code surface as apperror Duplicate errors
	// naming the colliding field.
	InsertUnits(ctx context.Context, units []*InventoryUnit) error

	GetUnit(ctx context.Context, unitID id.ID) (*InventoryUnit, error)

	// GetUnitForUpdate returns the unit with a FOR UPDATE row lock.
	GetUnitForUpdate(ctx context.Context, unitID id.ID) (*InventoryUnit, error)

	UpdateUnit(ctx context.Context, unit *InventoryUnit) error

	// ListAvailableForRental returns active, unblocked units with
	// status=available for the given item and location.
	ListAvailableForRental(ctx context.Context, itemID, locationID id.ID, limit int) ([]*InventoryUnit, error)

	// SKUExists reports whether any unit carries the given SKU.
	SKUExists(ctx context.Context, sku string) (bool, error)

	// CountUnitsForItem returns the number of units ever created for an
	// item (including retired ones); used to seed SKU sequence numbers.
	CountUnitsForItem(ctx context.Context, itemID id.ID) (int64, error)

	// ExistingSerialNumbers returns the subset of the given serial numbers
	// already present in the registry.
	ExistingSerialNumbers(ctx context.Context, serials []string) ([]string, error)
}

// AuditPort abstracts the audit trail written after successful stock
// operations.
type AuditPort interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditEntry describes one audited stock operation.
type AuditEntry struct {
	Operation  string
	ItemID     id.ID
	LocationID id.ID
	Meta       map[string]any
}

package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/inventory"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres"
)

const inventoryUnitsTable = "inventory_units"

// unitRow is the flat persisted shape of an InventoryUnit. The domain's
// tagged-union identity maps onto two mutually exclusive nullable columns;
// a CHECK constraint enforces the exclusion at the database level too.
type unitRow struct {
	inventory.InventoryUnit
	SerialNumberCol *string `db:"serial_number"`
	BatchCodeCol    *string `db:"batch_code"`
}

var unitColumns = postgres.ExtractDBColumns[unitRow]()

func toUnitRow(u *inventory.InventoryUnit) unitRow {
	row := unitRow{InventoryUnit: *u}
	if sn, ok := u.SerialNumber(); ok {
		row.SerialNumberCol = &sn
	}
	if code, ok := u.BatchCode(); ok {
		row.BatchCodeCol = &code
	}
	return row
}

func (row unitRow) toDomain() *inventory.InventoryUnit {
	u := row.InventoryUnit
	switch {
	case row.SerialNumberCol != nil:
		u.Identity = inventory.SerializedIdentity{SerialNumber: *row.SerialNumberCol}
	case row.BatchCodeCol != nil:
		u.Identity = inventory.BatchIdentity{BatchCode: *row.BatchCodeCol}
	}
	return &u
}

// UnitRepo implements inventory.UnitRepository.
type UnitRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ inventory.UnitRepository = (*UnitRepo)(nil)

// NewUnitRepo creates a new inventory unit repository.
func NewUnitRepo(txManager *postgres.TxManager) *UnitRepo {
	return &UnitRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// InsertUnits bulk-inserts new units, using the COPY protocol when running
// inside a transaction. Constraint violations on sku/serial_number/batch_code
// surface as Duplicate errors naming the colliding field.
func (r *UnitRepo) InsertUnits(ctx context.Context, units []*inventory.InventoryUnit) error {
	if len(units) == 0 {
		return nil
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(units))
		for _, u := range units {
			rows = append(rows, unitValues(toUnitRow(u)))
		}
		if _, err := inserter.CopyFromSlice(ctx, inventoryUnitsTable, unitColumns, rows); err != nil {
			return postgres.TranslateError(err)
		}
		return nil
	}

	q := r.builder.Insert(inventoryUnitsTable).Columns(unitColumns...)
	for _, u := range units {
		q = q.Values(unitValues(toUnitRow(u))...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(err)
	}
	return nil
}

// unitValues produces the row values matching unitColumns ordering.
func unitValues(row unitRow) []any {
	m := postgres.StructToMap(row)
	values := make([]any, len(unitColumns))
	for i, col := range unitColumns {
		values[i] = m[col]
	}
	return values
}

// GetUnit returns one unit by id.
func (r *UnitRepo) GetUnit(ctx context.Context, unitID id.ID) (*inventory.InventoryUnit, error) {
	return r.getUnit(ctx, unitID, false)
}

// GetUnitForUpdate returns one unit holding a FOR UPDATE row lock.
func (r *UnitRepo) GetUnitForUpdate(ctx context.Context, unitID id.ID) (*inventory.InventoryUnit, error) {
	return r.getUnit(ctx, unitID, true)
}

func (r *UnitRepo) getUnit(ctx context.Context, unitID id.ID, forUpdate bool) (*inventory.InventoryUnit, error) {
	q := r.builder.Select(unitColumns...).
		From(inventoryUnitsTable).
		Where(squirrel.Eq{"id": unitID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row unitRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory unit", unitID)
		}
		return nil, fmt.Errorf("get unit: %w", err)
	}
	return row.toDomain(), nil
}

// UpdateUnit writes back a unit's mutable state.
func (r *UnitRepo) UpdateUnit(ctx context.Context, u *inventory.InventoryUnit) error {
	row := toUnitRow(u)
	q := r.builder.Update(inventoryUnitsTable).
		SetMap(map[string]any{
			"status":                 row.Status,
			"condition":              row.Condition,
			"is_rental_blocked":      row.IsRentalBlocked,
			"is_active":              row.IsActive,
			"last_maintenance_date":  row.LastMaintenanceDate,
			"next_maintenance_date":  row.NextMaintenanceDate,
			"sale_price":             row.SalePrice,
			"rental_rate_per_period": row.RentalRatePerPeriod,
			"security_deposit":       row.SecurityDeposit,
			"updated_at":             row.UpdatedAt,
			"updated_by":             row.UpdatedBy,
		}).
		Where(squirrel.Eq{"id": u.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("inventory unit", u.ID)
	}
	return nil
}

// ListAvailableForRental returns active, unblocked units with
// status=available for the given item and location.
func (r *UnitRepo) ListAvailableForRental(ctx context.Context, itemID, locationID id.ID, limit int) ([]*inventory.InventoryUnit, error) {
	q := r.builder.Select(unitColumns...).
		From(inventoryUnitsTable).
		Where(squirrel.Eq{
			"item_id":           itemID,
			"location_id":       locationID,
			"status":            inventory.UnitStatusAvailable,
			"is_active":         true,
			"is_rental_blocked": false,
		}).
		OrderBy("created_at", "id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []unitRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select units: %w", err)
	}

	units := make([]*inventory.InventoryUnit, 0, len(rows))
	for _, row := range rows {
		units = append(units, row.toDomain())
	}
	return units, nil
}

// SKUExists reports whether any unit carries the given SKU.
func (r *UnitRepo) SKUExists(ctx context.Context, sku string) (bool, error) {
	sql := `SELECT EXISTS (SELECT 1 FROM inventory_units WHERE sku = $1)`

	var exists bool
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, sku).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sku: %w", err)
	}
	return exists, nil
}

// CountUnitsForItem returns the number of units ever created for an item,
// retired ones included; the count seeds SKU sequence numbers.
func (r *UnitRepo) CountUnitsForItem(ctx context.Context, itemID id.ID) (int64, error) {
	sql := `SELECT COUNT(*) FROM inventory_units WHERE item_id = $1`

	var count int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, itemID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count units: %w", err)
	}
	return count, nil
}

// ExistingSerialNumbers returns the subset of the given serial numbers already
// present in the registry.
func (r *UnitRepo) ExistingSerialNumbers(ctx context.Context, serials []string) ([]string, error) {
	if len(serials) == 0 {
		return nil, nil
	}

	q := r.builder.Select("serial_number").
		From(inventoryUnitsTable).
		Where(squirrel.Eq{"serial_number": serials})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var existing []string
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &existing, sql, args...); err != nil {
		return nil, fmt.Errorf("select serial numbers: %w", err)
	}
	return existing, nil
}

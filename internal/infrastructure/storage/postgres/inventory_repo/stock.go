// Package inventory_repo provides PostgreSQL implementations of the stock
// reconciliation repositories.
package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/inventory"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres"
)

const (
	stockLevelsTable    = "stock_levels"
	stockMovementsTable = "stock_movements"
)

var (
	stockLevelColumns    = postgres.ExtractDBColumns[inventory.StockLevel]()
	stockMovementColumns = postgres.ExtractDBColumns[inventory.StockMovement]()
)

// StockRepo implements inventory.StockRepository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ inventory.StockRepository = (*StockRepo)(nil)

// NewStockRepo creates a new stock repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetLevel returns the stock level for an (item, location) pair.
func (r *StockRepo) GetLevel(ctx context.Context, itemID, locationID id.ID) (*inventory.StockLevel, error) {
	return r.getLevel(ctx, itemID, locationID, false)
}

// GetLevelForUpdate returns the stock level holding a FOR UPDATE row lock.
// The lock serializes concurrent writers of the same pair until the enclosing
// transaction resolves.
func (r *StockRepo) GetLevelForUpdate(ctx context.Context, itemID, locationID id.ID) (*inventory.StockLevel, error) {
	return r.getLevel(ctx, itemID, locationID, true)
}

func (r *StockRepo) getLevel(ctx context.Context, itemID, locationID id.ID, forUpdate bool) (*inventory.StockLevel, error) {
	q := r.builder.Select(stockLevelColumns...).
		From(stockLevelsTable).
		Where(squirrel.Eq{"item_id": itemID, "location_id": locationID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var level inventory.StockLevel
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &level, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("stock level", fmt.Sprintf("%s@%s", itemID, locationID))
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return &level, nil
}

// GetOrCreateLevel returns the locked level, creating an empty row on first
// use. INSERT .. ON CONFLICT DO NOTHING plus a locked re-read guarantees
// exactly one row survives concurrent first-writers: the loser's insert is a
// no-op and its read blocks on the winner's lock.
func (r *StockRepo) GetOrCreateLevel(ctx context.Context, itemID, locationID id.ID, actor string) (*inventory.StockLevel, error) {
	level, err := r.GetLevelForUpdate(ctx, itemID, locationID)
	if err == nil {
		return level, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	fresh := inventory.NewStockLevel(itemID, locationID, actor)
	q := r.builder.Insert(stockLevelsTable).
		SetMap(postgres.StructToMap(fresh)).
		Suffix("ON CONFLICT (item_id, location_id) DO NOTHING")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return nil, postgres.TranslateError(err)
	}

	return r.GetLevelForUpdate(ctx, itemID, locationID)
}

// UpdateLevel writes back all quantity partitions of a level.
func (r *StockRepo) UpdateLevel(ctx context.Context, level *inventory.StockLevel) error {
	q := r.builder.Update(stockLevelsTable).
		SetMap(map[string]any{
			"quantity_on_hand":       level.QuantityOnHand,
			"quantity_available":     level.QuantityAvailable,
			"quantity_on_rent":       level.QuantityOnRent,
			"quantity_damaged":       level.QuantityDamaged,
			"quantity_under_repair":  level.QuantityUnderRepair,
			"quantity_beyond_repair": level.QuantityBeyondRepair,
			"is_active":              level.IsActive,
			"updated_at":             level.UpdatedAt,
			"updated_by":             level.UpdatedBy,
		}).
		Where(squirrel.Eq{"id": level.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("stock level", level.ID)
	}
	return nil
}

// InsertMovement appends one immutable ledger row.
func (r *StockRepo) InsertMovement(ctx context.Context, movement inventory.StockMovement) error {
	q := r.builder.Insert(stockMovementsTable).
		SetMap(postgres.StructToMap(movement))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(err)
	}
	return nil
}

// LatestQuantityAfter returns the quantity_after of the item's most recent
// movement across all locations. The chain is scoped per item, not per
// (item, location).
func (r *StockRepo) LatestQuantityAfter(ctx context.Context, itemID id.ID) (types.Quantity, bool, error) {
	q := r.builder.Select("quantity_after").
		From(stockMovementsTable).
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("build query: %w", err)
	}

	var after types.Quantity
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &after, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get latest quantity after: %w", err)
	}
	return after, true, nil
}

// ListMovements returns ledger history for an item, oldest first.
func (r *StockRepo) ListMovements(ctx context.Context, itemID id.ID, filter inventory.MovementFilter) ([]inventory.StockMovement, error) {
	q := r.builder.Select(stockMovementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("created_at", "id")

	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
	}
	if filter.MovementType != nil {
		q = q.Where(squirrel.Eq{"movement_type": *filter.MovementType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []inventory.StockMovement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

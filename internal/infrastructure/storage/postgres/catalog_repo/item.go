// Package catalog_repo provides PostgreSQL implementations of the master-data
// catalog repositories consumed by the stock reconciliation core.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/item"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres"
)

const itemsTable = "items"

var itemColumns = postgres.ExtractDBColumns[item.Item]()

// ItemRepo implements item.Repository.
type ItemRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ item.Repository = (*ItemRepo)(nil)

// NewItemRepo creates a new item repository.
func NewItemRepo(txManager *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new item.
func (r *ItemRepo) Create(ctx context.Context, it *item.Item) error {
	q := r.builder.Insert(itemsTable).SetMap(postgres.StructToMap(it))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(err)
	}
	return nil
}

// GetByID returns one item by id.
func (r *ItemRepo) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	return r.getOne(ctx, squirrel.Eq{"id": itemID}, itemID)
}

// GetBySKU returns one item by base SKU.
func (r *ItemRepo) GetBySKU(ctx context.Context, sku string) (*item.Item, error) {
	return r.getOne(ctx, squirrel.Eq{"sku": sku}, sku)
}

func (r *ItemRepo) getOne(ctx context.Context, pred squirrel.Eq, ref any) (*item.Item, error) {
	sql, args, err := r.builder.Select(itemColumns...).
		From(itemsTable).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var it item.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &it, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("item", ref)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &it, nil
}

// Update writes back an item.
func (r *ItemRepo) Update(ctx context.Context, it *item.Item) error {
	m := postgres.StructToMap(it)
	delete(m, "id")
	delete(m, "created_at")
	delete(m, "created_by")

	q := r.builder.Update(itemsTable).SetMap(m).Where(squirrel.Eq{"id": it.ID})
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("item", it.ID)
	}
	return nil
}

// ExistsBySKU reports whether an item with the given SKU exists.
func (r *ItemRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	sql := `SELECT EXISTS (SELECT 1 FROM items WHERE sku = $1)`

	var exists bool
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, sku).Scan(&exists); err != nil {
		return false, fmt.Errorf("check item sku: %w", err)
	}
	return exists, nil
}

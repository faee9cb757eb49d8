package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/location"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres"
)

const locationsTable = "locations"

var locationColumns = postgres.ExtractDBColumns[location.Location]()

// LocationRepo implements location.Repository.
type LocationRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ location.Repository = (*LocationRepo)(nil)

// NewLocationRepo creates a new location repository.
func NewLocationRepo(txManager *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new location.
func (r *LocationRepo) Create(ctx context.Context, loc *location.Location) error {
	q := r.builder.Insert(locationsTable).SetMap(postgres.StructToMap(loc))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.TranslateError(err)
	}
	return nil
}

// GetByID returns one location by id.
func (r *LocationRepo) GetByID(ctx context.Context, locationID id.ID) (*location.Location, error) {
	return r.getOne(ctx, squirrel.Eq{"id": locationID}, locationID)
}

// GetByCode returns one location by code.
func (r *LocationRepo) GetByCode(ctx context.Context, code string) (*location.Location, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *LocationRepo) getOne(ctx context.Context, pred squirrel.Eq, ref any) (*location.Location, error) {
	sql, args, err := r.builder.Select(locationColumns...).
		From(locationsTable).
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var loc location.Location
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &loc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("location", ref)
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &loc, nil
}

// ExistsByCode reports whether a location with the given code exists.
func (r *LocationRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	sql := `SELECT EXISTS (SELECT 1 FROM locations WHERE code = $1)`

	var exists bool
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("check location code: %w", err)
	}
	return exists, nil
}

package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// uniqueConstraints maps constraint names to the entity and field reported in
// the resulting duplicate error. The unique constraint is the final authority
// on SKU/serial/batch uniqueness; pre-checks only shrink the race window.
var uniqueConstraints = map[string]struct {
	entity string
	field  string
}{
	"uq_stock_levels_item_location":    {"stock level", "item_id+location_id"},
	"uq_inventory_units_sku":           {"inventory unit", "sku"},
	"uq_inventory_units_serial_number": {"inventory unit", "serial_number"},
	"uq_inventory_units_batch_code":    {"inventory unit", "batch_code"},
	"uq_items_sku":                     {"item", "sku"},
	"uq_locations_code":                {"location", "code"},
}

// TranslateError converts low-level pgx constraint violations into domain
// errors. A caught uniqueness violation becomes a Duplicate error naming the
// colliding field; anything unrecognized passes through unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if c, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
			return apperror.NewDuplicate(c.entity, c.field, extractDetailValue(pgErr.Detail)).WithCause(err)
		}
		return apperror.NewConflict("duplicate value violates a unique constraint").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewValidation("referenced entity does not exist").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}

// IsUniqueViolation reports whether err is a raw unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// extractDetailValue pulls the colliding value out of a Postgres detail line
// of the form `Key (sku)=(CAM-0001) already exists.`.
func extractDetailValue(detail string) string {
	open := -1
	for i := 0; i < len(detail); i++ {
		if detail[i] == '=' && i+1 < len(detail) && detail[i+1] == '(' {
			open = i + 2
			break
		}
	}
	if open < 0 {
		return ""
	}
	for i := open; i < len(detail); i++ {
		if detail[i] == ')' {
			return detail[open:i]
		}
	}
	return ""
}

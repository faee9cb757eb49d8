package inventory

import (
	"fmt"
	"time"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
)

// StockMovement is one immutable row of the audit ledger. Movements are
// append-only: they are never updated or deleted, and any reconciliation bug
// is diagnosable by replaying them against the StockLevel projection.
type StockMovement struct {
	ID id.ID `db:"id" json:"id"`

	// Denormalized references for query efficiency.
	StockLevelID id.ID `db:"stock_level_id" json:"stockLevelId"`
	ItemID       id.ID `db:"item_id" json:"itemId"`
	LocationID   id.ID `db:"location_id" json:"locationId"`

	MovementType MovementType `db:"movement_type" json:"movementType"`

	// QuantityChange is the signed delta; QuantityBefore/QuantityAfter
	// snapshot the item's chained quantity around this event.
	QuantityChange types.Quantity `db:"quantity_change" json:"quantityChange"`
	QuantityBefore types.Quantity `db:"quantity_before" json:"quantityBefore"`
	QuantityAfter  types.Quantity `db:"quantity_after" json:"quantityAfter"`

	// Optional back-references to the originating financial transaction.
	TransactionHeaderID *id.ID `db:"transaction_header_id" json:"transactionHeaderId,omitempty"`
	TransactionLineID   *id.ID `db:"transaction_line_id" json:"transactionLineId,omitempty"`

	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// NewStockMovement constructs a movement and validates the chain arithmetic
// at construction time: before + change == after (within tolerance), and
// neither side of the chain may be negative.
func NewStockMovement(
	stockLevelID, itemID, locationID id.ID,
	movementType MovementType,
	change, before, after types.Quantity,
	actor string,
) (StockMovement, error) {
	if !movementType.IsValid() {
		return StockMovement{}, apperror.NewValidation("unknown movement type").
			WithDetail("movement_type", string(movementType))
	}
	if change.IsZero() {
		return StockMovement{}, apperror.NewInvalidQuantity("movement quantity change must be non-zero")
	}
	if before.IsNegative() || after.IsNegative() {
		return StockMovement{}, apperror.NewInvariantViolation(
			fmt.Sprintf("movement for item %s: negative chain quantity (before %s, after %s)",
				itemID, before, after))
	}
	if !(before + change).WithinTolerance(after) {
		return StockMovement{}, apperror.NewInvariantViolation(
			fmt.Sprintf("movement for item %s: before %s + change %s != after %s",
				itemID, before, change, after))
	}

	return StockMovement{
		ID:             id.New(),
		StockLevelID:   stockLevelID,
		ItemID:         itemID,
		LocationID:     locationID,
		MovementType:   movementType,
		QuantityChange: change,
		QuantityBefore: before,
		QuantityAfter:  after,
		CreatedAt:      time.Now().UTC(),
		CreatedBy:      actor,
	}, nil
}

// WithTransaction attaches the originating financial transaction references.
func (m StockMovement) WithTransaction(headerID, lineID *id.ID) StockMovement {
	m.TransactionHeaderID = headerID
	m.TransactionLineID = lineID
	return m
}

// WithNotes attaches a free-form note.
func (m StockMovement) WithNotes(notes string) StockMovement {
	m.Notes = notes
	return m
}

// MovementFilter narrows ledger history queries.
type MovementFilter struct {
	LocationID   *id.ID
	MovementType *MovementType
	FromDate     *time.Time
	ToDate       *time.Time
	Limit        int
	Offset       int
}

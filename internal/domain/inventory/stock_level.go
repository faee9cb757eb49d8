// Package inventory provides the stock reconciliation core: the StockLevel
// aggregate, the immutable StockMovement ledger, the InventoryUnit registry,
// and the transactional protocol that keeps the three consistent.
package inventory

import (
	"fmt"
	"time"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
)

// StockLevel is the mutable per-(item, location) aggregate of quantity
// partitions. It is a cached projection of the movement ledger; every
// transition re-validates the partition invariants before the change is
// accepted, and a failed transition leaves the receiver untouched.
//
// Partition invariant:
//
//	available + on_rent + damaged + under_repair + beyond_repair == on_hand
type StockLevel struct {
	ID         id.ID `db:"id" json:"id"`
	ItemID     id.ID `db:"item_id" json:"itemId"`
	LocationID id.ID `db:"location_id" json:"locationId"`

	QuantityOnHand       types.Quantity `db:"quantity_on_hand" json:"quantityOnHand"`
	QuantityAvailable    types.Quantity `db:"quantity_available" json:"quantityAvailable"`
	QuantityOnRent       types.Quantity `db:"quantity_on_rent" json:"quantityOnRent"`
	QuantityDamaged      types.Quantity `db:"quantity_damaged" json:"quantityDamaged"`
	QuantityUnderRepair  types.Quantity `db:"quantity_under_repair" json:"quantityUnderRepair"`
	QuantityBeyondRepair types.Quantity `db:"quantity_beyond_repair" json:"quantityBeyondRepair"`

	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewStockLevel creates an empty stock level for an (item, location) pair.
// Levels are created lazily on the first stock-affecting event and are never
// deleted afterwards.
func NewStockLevel(itemID, locationID id.ID, actor string) *StockLevel {
	now := time.Now().UTC()
	return &StockLevel{
		ID:         id.New(),
		ItemID:     itemID,
		LocationID: locationID,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  actor,
		UpdatedBy:  actor,
	}
}

// ValidateInvariants checks the partition sum (within tolerance) and
// non-negativity of every partition. A violation here means corrupted data,
// not bad user input.
func (s *StockLevel) ValidateInvariants() error {
	for _, p := range []struct {
		name string
		qty  types.Quantity
	}{
		{"quantity_on_hand", s.QuantityOnHand},
		{"quantity_available", s.QuantityAvailable},
		{"quantity_on_rent", s.QuantityOnRent},
		{"quantity_damaged", s.QuantityDamaged},
		{"quantity_under_repair", s.QuantityUnderRepair},
		{"quantity_beyond_repair", s.QuantityBeyondRepair},
	} {
		if p.qty.IsNegative() {
			return apperror.NewInvariantViolation(
				fmt.Sprintf("stock level %s: %s is negative (%s)", s.ID, p.name, p.qty)).
				WithDetail("stock_level_id", s.ID.String()).
				WithDetail("field", p.name)
		}
	}

	sum := s.QuantityAvailable + s.QuantityOnRent + s.QuantityDamaged +
		s.QuantityUnderRepair + s.QuantityBeyondRepair
	if !sum.WithinTolerance(s.QuantityOnHand) {
		return apperror.NewInvariantViolation(
			fmt.Sprintf("stock level %s: partition sum %s does not match on-hand %s",
				s.ID, sum, s.QuantityOnHand)).
			WithDetail("stock_level_id", s.ID.String()).
			WithDetail("partition_sum", sum.String()).
			WithDetail("quantity_on_hand", s.QuantityOnHand.String())
	}

	return nil
}

// commit validates the candidate state and, only if valid, replaces the
// receiver. This is what guarantees failed transitions never persist a
// partial partition update.
func (s *StockLevel) commit(next StockLevel) error {
	if err := next.ValidateInvariants(); err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()
	*s = next
	return nil
}

// Receive increases on-hand and available by quantity (purchase,
// purchase-style inbound).
func (s *StockLevel) Receive(quantity types.Quantity) error {
	if !quantity.IsPositive() {
		return apperror.NewInvalidQuantity("receive quantity must be positive")
	}
	next := *s
	next.QuantityOnHand += quantity
	next.QuantityAvailable += quantity
	return s.commit(next)
}

// Sell decreases on-hand and available by quantity. Unlike AdjustOnHand it
// never touches the rental pool: selling stock that is out on rent is a
// caller error.
func (s *StockLevel) Sell(quantity types.Quantity) error {
	if !quantity.IsPositive() {
		return apperror.NewInvalidQuantity("sale quantity must be positive")
	}
	if quantity > s.QuantityAvailable {
		return apperror.NewInsufficientStock(
			s.ItemID.String(), s.LocationID.String(),
			quantity.String(), s.QuantityAvailable.String())
	}
	next := *s
	next.QuantityOnHand -= quantity
	next.QuantityAvailable -= quantity
	return s.commit(next)
}

// RentOut moves quantity from available to on-rent.
func (s *StockLevel) RentOut(quantity types.Quantity) error {
	if !quantity.IsPositive() {
		return apperror.NewInvalidQuantity("rental quantity must be positive")
	}
	if quantity > s.QuantityAvailable {
		return apperror.NewInsufficientStock(
			s.ItemID.String(), s.LocationID.String(),
			quantity.String(), s.QuantityAvailable.String())
	}
	next := *s
	next.QuantityAvailable -= quantity
	next.QuantityOnRent += quantity
	return s.commit(next)
}

// ReturnFromRent moves quantity from on-rent back to available (clean return).
func (s *StockLevel) ReturnFromRent(quantity types.Quantity) error {
	if !quantity.IsPositive() {
		return apperror.NewInvalidQuantity("return quantity must be positive")
	}
	if quantity > s.QuantityOnRent {
		return apperror.NewInvalidQuantity(
			fmt.Sprintf("cannot return %s: only %s on rent", quantity, s.QuantityOnRent)).
			WithDetail("item_id", s.ItemID.String()).
			WithDetail("location_id", s.LocationID.String())
	}
	next := *s
	next.QuantityOnRent -= quantity
	next.QuantityAvailable += quantity
	return s.commit(next)
}

// ReturnDamagedFromRent moves quantity from on-rent to damaged. Damaged
// returns never re-enter the available pool; that is the business rule
// distinguishing them from clean returns.
func (s *StockLevel) ReturnDamagedFromRent(quantity types.Quantity) error {
	if !quantity.IsPositive() {
		return apperror.NewInvalidQuantity("damaged return quantity must be positive")
	}
	if quantity > s.QuantityOnRent {
		return apperror.NewInvalidQuantity(
			fmt.Sprintf("cannot return %s damaged: only %s on rent", quantity, s.QuantityOnRent)).
			WithDetail("item_id", s.ItemID.String()).
			WithDetail("location_id", s.LocationID.String())
	}
	next := *s
	next.QuantityOnRent -= quantity
	next.QuantityDamaged += quantity
	return s.commit(next)
}

// MoveToRepair moves quantity from damaged to under-repair.
func (s *StockLevel) MoveToRepair(quantity types.Quantity) error {
	if !quantity.IsPositive() {
		return apperror.NewInvalidQuantity("repair quantity must be positive")
	}
	if quantity > s.QuantityDamaged {
		return apperror.NewInvalidQuantity(
			fmt.Sprintf("cannot repair %s: only %s damaged", quantity, s.QuantityDamaged))
	}
	next := *s
	next.QuantityDamaged -= quantity
	next.QuantityUnderRepair += quantity
	return s.commit(next)
}

// CompleteRepair moves quantity from under-repair back to available:
// repaired stock re-enters the rentable pool.
func (s *StockLevel) CompleteRepair(quantity types.Quantity) error {
	if !quantity.IsPositive() {
		return apperror.NewInvalidQuantity("repair quantity must be positive")
	}
	if quantity > s.QuantityUnderRepair {
		return apperror.NewInvalidQuantity(
			fmt.Sprintf("cannot complete repair of %s: only %s under repair", quantity, s.QuantityUnderRepair))
	}
	next := *s
	next.QuantityUnderRepair -= quantity
	next.QuantityAvailable += quantity
	return s.commit(next)
}

// MarkBeyondRepair moves quantity from under-repair to beyond-repair after a
// failed repair attempt. This is the only way stock enters the beyond-repair
// partition, which in turn is the only stock WriteOffDamaged may remove.
func (s *StockLevel) MarkBeyondRepair(quantity types.Quantity) error {
	if !quantity.IsPositive() {
		return apperror.NewInvalidQuantity("write-down quantity must be positive")
	}
	if quantity > s.QuantityUnderRepair {
		return apperror.NewInvalidQuantity(
			fmt.Sprintf("cannot mark %s beyond repair: only %s under repair", quantity, s.QuantityUnderRepair))
	}
	next := *s
	next.QuantityUnderRepair -= quantity
	next.QuantityBeyondRepair += quantity
	return s.commit(next)
}

// WriteOffDamaged removes quantity from beyond-repair and from on-hand
// entirely. The stock stops existing at this location.
func (s *StockLevel) WriteOffDamaged(quantity types.Quantity) error {
	if !quantity.IsPositive() {
		return apperror.NewInvalidQuantity("write-off quantity must be positive")
	}
	if quantity > s.QuantityBeyondRepair {
		return apperror.NewInvalidQuantity(
			fmt.Sprintf("cannot write off %s: only %s beyond repair", quantity, s.QuantityBeyondRepair))
	}
	next := *s
	next.QuantityBeyondRepair -= quantity
	next.QuantityOnHand -= quantity
	return s.commit(next)
}

// AdjustOnHand applies a generic correction delta. Positive deltas grow
// on-hand and available together. Negative deltas shrink available and
// on-rent proportionally to how much on-hand shrank; the damaged, repair and
// beyond-repair partitions are untouched, so on-hand can never drop below
// them.
func (s *StockLevel) AdjustOnHand(delta types.Quantity) error {
	if delta.IsZero() {
		return apperror.NewInvalidQuantity("adjustment delta must be non-zero")
	}

	next := *s
	next.QuantityOnHand += delta
	if next.QuantityOnHand.IsNegative() {
		return apperror.NewInvalidQuantity(
			fmt.Sprintf("adjustment of %s would leave on-hand negative (current %s)", delta, s.QuantityOnHand)).
			WithDetail("item_id", s.ItemID.String()).
			WithDetail("location_id", s.LocationID.String())
	}

	if delta.IsPositive() {
		next.QuantityAvailable += delta
		return s.commit(next)
	}

	reserved := s.QuantityDamaged + s.QuantityUnderRepair + s.QuantityBeyondRepair
	if next.QuantityOnHand < reserved {
		return apperror.NewInvalidQuantity(
			fmt.Sprintf("adjustment of %s would shrink on-hand below non-rentable stock (%s)", delta, reserved))
	}

	// The rentable pool (available + on_rent) must absorb the whole
	// shrinkage. Preserve the prior available/on-rent ratio using integer
	// math, clamp so on-rent never grows, and let available absorb the
	// rounding remainder so the partition sum stays exact.
	pool := next.QuantityOnHand - reserved
	oldPool := s.QuantityAvailable + s.QuantityOnRent
	var newOnRent types.Quantity
	if oldPool.IsPositive() {
		newOnRent = types.Quantity(int64(s.QuantityOnRent) * int64(pool) / int64(oldPool))
		if newOnRent > s.QuantityOnRent {
			newOnRent = s.QuantityOnRent
		}
	}
	next.QuantityOnRent = newOnRent
	next.QuantityAvailable = pool - newOnRent

	return s.commit(next)
}

// CanFulfillRental reports whether a rental of quantity can be satisfied from
// the available pool. Damaged, under-repair and beyond-repair stock is
// categorically excluded even though it counts toward on-hand.
func (s *StockLevel) CanFulfillRental(quantity types.Quantity) bool {
	return s.IsActive && quantity.IsPositive() && s.QuantityAvailable >= quantity
}

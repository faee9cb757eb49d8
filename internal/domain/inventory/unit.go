package inventory

import (
	"fmt"
	"time"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
)

// UnitIdentity is the physical identity of an inventory unit: either a
// unique serial number (one row per physical item) or a batch code (one row
// for N identical non-serialized items). Modeling this as a sum type makes
// the "exactly one of serial/batch" rule structural instead of a runtime
// check on two nullable columns.
type UnitIdentity interface {
	unitIdentity()
}

// SerializedIdentity identifies a single physical unit by serial number.
type SerializedIdentity struct {
	SerialNumber string
}

func (SerializedIdentity) unitIdentity() {}

// BatchIdentity identifies a batch of identical non-serialized units.
type BatchIdentity struct {
	BatchCode string
}

func (BatchIdentity) unitIdentity() {}

// InventoryUnit is a registry row for one serialized physical unit or one
// batch. Its status lifecycle is independent of the aggregate StockLevel
// counts; the reconciliation protocol keeps the two in step.
type InventoryUnit struct {
	ID         id.ID `db:"id" json:"id"`
	ItemID     id.ID `db:"item_id" json:"itemId"`
	LocationID id.ID `db:"location_id" json:"locationId"`

	// SKU is globally unique across all units.
	SKU      string       `db:"sku" json:"sku"`
	Identity UnitIdentity `db:"-" json:"-"`

	Status    UnitStatus    `db:"status" json:"status"`
	Condition UnitCondition `db:"condition" json:"condition"`

	// Quantity is 1 for serialized units, the full batch count for batches.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	PurchasePrice       types.Money `db:"purchase_price" json:"purchasePrice"`
	SalePrice           types.Money `db:"sale_price" json:"salePrice"`
	RentalRatePerPeriod types.Money `db:"rental_rate_per_period" json:"rentalRatePerPeriod"`
	SecurityDeposit     types.Money `db:"security_deposit" json:"securityDeposit"`

	PurchaseDate        *time.Time `db:"purchase_date" json:"purchaseDate,omitempty"`
	WarrantyExpiry      *time.Time `db:"warranty_expiry" json:"warrantyExpiry,omitempty"`
	LastMaintenanceDate *time.Time `db:"last_maintenance_date" json:"lastMaintenanceDate,omitempty"`
	NextMaintenanceDate *time.Time `db:"next_maintenance_date" json:"nextMaintenanceDate,omitempty"`

	// IsRentalBlocked is an administrative override: the unit can be
	// available yet excluded from rental.
	IsRentalBlocked bool `db:"is_rental_blocked" json:"isRentalBlocked"`

	// IsActive is the soft-deactivation flag; units are never physically
	// deleted.
	IsActive bool `db:"is_active" json:"isActive"`

	TransactionLineID *id.ID `db:"transaction_line_id" json:"transactionLineId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewSerializedUnit creates a unit for one physical serialized item.
func NewSerializedUnit(itemID, locationID id.ID, sku, serialNumber string, condition UnitCondition, actor string) *InventoryUnit {
	u := newUnit(itemID, locationID, sku, condition, actor)
	u.Identity = SerializedIdentity{SerialNumber: serialNumber}
	u.Quantity = types.NewQuantityFromInt(1)
	return u
}

// NewBatchUnit creates a single unit row representing a whole batch.
func NewBatchUnit(itemID, locationID id.ID, sku, batchCode string, quantity types.Quantity, condition UnitCondition, actor string) *InventoryUnit {
	u := newUnit(itemID, locationID, sku, condition, actor)
	u.Identity = BatchIdentity{BatchCode: batchCode}
	u.Quantity = quantity
	return u
}

func newUnit(itemID, locationID id.ID, sku string, condition UnitCondition, actor string) *InventoryUnit {
	now := time.Now().UTC()
	return &InventoryUnit{
		ID:         id.New(),
		ItemID:     itemID,
		LocationID: locationID,
		SKU:        sku,
		Status:     UnitStatusAvailable,
		Condition:  condition,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  actor,
		UpdatedBy:  actor,
	}
}

// SerialNumber returns the serial number for serialized units.
func (u *InventoryUnit) SerialNumber() (string, bool) {
	if s, ok := u.Identity.(SerializedIdentity); ok {
		return s.SerialNumber, true
	}
	return "", false
}

// BatchCode returns the batch code for batch units.
func (u *InventoryUnit) BatchCode() (string, bool) {
	if b, ok := u.Identity.(BatchIdentity); ok {
		return b.BatchCode, true
	}
	return "", false
}

// IsSerialized reports whether the unit tracks a single physical item.
func (u *InventoryUnit) IsSerialized() bool {
	_, ok := u.Identity.(SerializedIdentity)
	return ok
}

// Validate checks the unit's structural invariants.
func (u *InventoryUnit) Validate() error {
	if u.SKU == "" {
		return apperror.NewValidation("unit sku is required")
	}
	switch ident := u.Identity.(type) {
	case SerializedIdentity:
		if ident.SerialNumber == "" {
			return apperror.NewValidation("serial number is required for serialized units")
		}
		if u.Quantity != types.NewQuantityFromInt(1) {
			return apperror.NewInvalidQuantity("serialized unit quantity must be exactly 1")
		}
	case BatchIdentity:
		if ident.BatchCode == "" {
			return apperror.NewValidation("batch code is required for batch units")
		}
		if !u.Quantity.IsPositive() {
			return apperror.NewInvalidQuantity("batch quantity must be positive")
		}
	default:
		return apperror.NewValidation("unit identity must be serialized or batch")
	}
	return nil
}

// MaintenanceOverdue reports whether scheduled maintenance has lapsed.
func (u *InventoryUnit) MaintenanceOverdue(now time.Time) bool {
	return u.NextMaintenanceDate != nil && u.NextMaintenanceDate.Before(now)
}

// CanBeRented is the rental guard: available, active, not administratively
// blocked, in an acceptable condition, and not overdue for maintenance.
func (u *InventoryUnit) CanBeRented(now time.Time) bool {
	return u.IsActive &&
		u.Status == UnitStatusAvailable &&
		!u.IsRentalBlocked &&
		u.Condition.IsRentable() &&
		!u.MaintenanceOverdue(now)
}

func (u *InventoryUnit) transitionError(action string) error {
	return apperror.NewBusinessRule(apperror.CodeBusinessRule,
		fmt.Sprintf("unit %s cannot %s while %s", u.SKU, action, u.Status)).
		WithDetail("unit_id", u.ID.String()).
		WithDetail("status", string(u.Status))
}

// RentOut transitions available -> rented, applying the full rental guard.
func (u *InventoryUnit) RentOut(now time.Time, actor string) error {
	if u.Status != UnitStatusAvailable {
		return u.transitionError("be rented")
	}
	if !u.CanBeRented(now) {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			fmt.Sprintf("unit %s is not rentable", u.SKU)).
			WithDetail("unit_id", u.ID.String()).
			WithDetail("rental_blocked", u.IsRentalBlocked).
			WithDetail("condition", string(u.Condition))
	}
	u.Status = UnitStatusRented
	u.touch(actor)
	return nil
}

// ReturnFromRent transitions rented -> available (clean) or rented -> damaged.
func (u *InventoryUnit) ReturnFromRent(damaged bool, actor string) error {
	if u.Status != UnitStatusRented {
		return u.transitionError("be returned")
	}
	if damaged {
		u.Status = UnitStatusDamaged
		u.Condition = ConditionDamaged
	} else {
		u.Status = UnitStatusAvailable
	}
	u.touch(actor)
	return nil
}

// MarkAsSold transitions available -> sold (terminal).
func (u *InventoryUnit) MarkAsSold(actor string) error {
	if u.Status != UnitStatusAvailable {
		return u.transitionError("be sold")
	}
	u.Status = UnitStatusSold
	u.touch(actor)
	return nil
}

// SendToMaintenance transitions available or damaged -> maintenance.
func (u *InventoryUnit) SendToMaintenance(now time.Time, actor string) error {
	if u.Status != UnitStatusAvailable && u.Status != UnitStatusDamaged {
		return u.transitionError("enter maintenance")
	}
	u.Status = UnitStatusMaintenance
	t := now.UTC()
	u.LastMaintenanceDate = &t
	u.touch(actor)
	return nil
}

// ReturnFromMaintenance transitions maintenance -> available with the
// post-repair condition grade.
func (u *InventoryUnit) ReturnFromMaintenance(condition UnitCondition, actor string) error {
	if u.Status != UnitStatusMaintenance {
		return u.transitionError("leave maintenance")
	}
	u.Status = UnitStatusAvailable
	u.Condition = condition
	u.touch(actor)
	return nil
}

// MarkDamaged transitions available -> damaged (damage discovered on site).
func (u *InventoryUnit) MarkDamaged(actor string) error {
	if u.Status != UnitStatusAvailable {
		return u.transitionError("be marked damaged")
	}
	u.Status = UnitStatusDamaged
	u.Condition = ConditionDamaged
	u.touch(actor)
	return nil
}

// Retire transitions any non-terminal state -> retired and deactivates the
// unit. Terminal: units are never physically deleted.
func (u *InventoryUnit) Retire(actor string) error {
	if u.Status == UnitStatusSold || u.Status == UnitStatusRetired {
		return u.transitionError("be retired")
	}
	u.Status = UnitStatusRetired
	u.IsActive = false
	u.touch(actor)
	return nil
}

// BlockRental sets the administrative rental block.
func (u *InventoryUnit) BlockRental(blocked bool, actor string) {
	u.IsRentalBlocked = blocked
	u.touch(actor)
}

func (u *InventoryUnit) touch(actor string) {
	u.UpdatedAt = time.Now().UTC()
	u.UpdatedBy = actor
}

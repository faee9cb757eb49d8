package inventory

import (
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
)

// MovementType categorizes every quantity-changing event in the stock ledger.
type MovementType string

const (
	MovementTypePurchase         MovementType = "purchase"
	MovementTypePurchaseReturn   MovementType = "purchase_return"
	MovementTypeSale             MovementType = "sale"
	MovementTypeSaleReturn       MovementType = "sale_return"
	MovementTypeRentalOut        MovementType = "rental_out"
	MovementTypeRentalReturn     MovementType = "rental_return"
	MovementTypeTransferIn       MovementType = "transfer_in"
	MovementTypeTransferOut      MovementType = "transfer_out"
	MovementTypeAdjustmentPos    MovementType = "adjustment_positive"
	MovementTypeAdjustmentNeg    MovementType = "adjustment_negative"
	MovementTypeDamageLoss       MovementType = "damage_loss"
	MovementTypeTheftLoss        MovementType = "theft_loss"
	MovementTypeSystemCorrection MovementType = "system_correction"
)

var validMovementTypes = map[MovementType]struct{}{
	MovementTypePurchase:         {},
	MovementTypePurchaseReturn:   {},
	MovementTypeSale:             {},
	MovementTypeSaleReturn:       {},
	MovementTypeRentalOut:        {},
	MovementTypeRentalReturn:     {},
	MovementTypeTransferIn:       {},
	MovementTypeTransferOut:      {},
	MovementTypeAdjustmentPos:    {},
	MovementTypeAdjustmentNeg:    {},
	MovementTypeDamageLoss:       {},
	MovementTypeTheftLoss:        {},
	MovementTypeSystemCorrection: {},
}

// IsValid reports whether the movement type is a known value.
func (t MovementType) IsValid() bool {
	_, ok := validMovementTypes[t]
	return ok
}

// UnitStatus is the lifecycle state of an individual inventory unit.
type UnitStatus string

const (
	UnitStatusAvailable   UnitStatus = "available"
	UnitStatusRented      UnitStatus = "rented"
	UnitStatusSold        UnitStatus = "sold"
	UnitStatusMaintenance UnitStatus = "maintenance"
	UnitStatusDamaged     UnitStatus = "damaged"
	UnitStatusRetired     UnitStatus = "retired"
)

// UnitCondition is the quality grade of a unit, orthogonal to status.
type UnitCondition string

const (
	ConditionNew       UnitCondition = "new"
	ConditionExcellent UnitCondition = "excellent"
	ConditionGood      UnitCondition = "good"
	ConditionFair      UnitCondition = "fair"
	ConditionPoor      UnitCondition = "poor"
	ConditionDamaged   UnitCondition = "damaged"
)

// rentableConditions is the set of grades acceptable for rental.
var rentableConditions = map[UnitCondition]struct{}{
	ConditionNew:       {},
	ConditionExcellent: {},
	ConditionGood:      {},
	ConditionFair:      {},
}

// IsRentable reports whether a unit in this condition may be rented out.
func (c UnitCondition) IsRentable() bool {
	_, ok := rentableConditions[c]
	return ok
}

// conditionCodes is the explicit finite mapping from grade codes used by
// purchase documents to condition enums. Unknown codes fail immediately
// instead of silently defaulting.
var conditionCodes = map[string]UnitCondition{
	"A": ConditionNew,
	"B": ConditionGood,
	"C": ConditionFair,
	"D": ConditionPoor,
}

// ConditionFromCode resolves a purchase-document grade code to a condition.
func ConditionFromCode(code string) (UnitCondition, error) {
	cond, ok := conditionCodes[code]
	if !ok {
		return "", apperror.NewValidation("unknown condition code").
			WithDetail("field", "condition_code").
			WithDetail("value", code)
	}
	return cond, nil
}

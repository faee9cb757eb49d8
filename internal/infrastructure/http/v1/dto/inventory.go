package dto

import (
	"time"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/inventory"
)

// --- Request DTOs for stock operations ---

// PurchaseRequest receives purchased stock at a location.
type PurchaseRequest struct {
	ItemID     string         `json:"itemId" binding:"required,uuid"`
	LocationID string         `json:"locationId" binding:"required,uuid"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`

	UnitCost       types.Money `json:"unitCost"`
	TaxRate        types.Money `json:"taxRate"`
	DiscountAmount types.Money `json:"discountAmount"`

	ConditionCode string   `json:"conditionCode"`
	SerialNumbers []string `json:"serialNumbers"`

	TransactionHeaderID string `json:"transactionHeaderId" binding:"omitempty,uuid"`
	TransactionLineID   string `json:"transactionLineId" binding:"omitempty,uuid"`
	Notes               string `json:"notes"`
}

// ToInput converts the request to a service input.
func (r PurchaseRequest) ToInput() (inventory.PurchaseInput, error) {
	itemID, locationID, err := parseItemLocation(r.ItemID, r.LocationID)
	if err != nil {
		return inventory.PurchaseInput{}, err
	}
	headerID, lineID, err := parseTransactionRefs(r.TransactionHeaderID, r.TransactionLineID)
	if err != nil {
		return inventory.PurchaseInput{}, err
	}
	return inventory.PurchaseInput{
		ItemID:              itemID,
		LocationID:          locationID,
		Quantity:            r.Quantity,
		UnitCost:            r.UnitCost,
		TaxRate:             r.TaxRate,
		DiscountAmount:      r.DiscountAmount,
		ConditionCode:       r.ConditionCode,
		SerialNumbers:       r.SerialNumbers,
		TransactionHeaderID: headerID,
		TransactionLineID:   lineID,
		Notes:               r.Notes,
	}, nil
}

// SaleRequest removes sold stock from a location.
type SaleRequest struct {
	ItemID     string         `json:"itemId" binding:"required,uuid"`
	LocationID string         `json:"locationId" binding:"required,uuid"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`

	TransactionHeaderID string `json:"transactionHeaderId" binding:"omitempty,uuid"`
	TransactionLineID   string `json:"transactionLineId" binding:"omitempty,uuid"`
	Notes               string `json:"notes"`
}

// ToInput converts the request to a service input.
func (r SaleRequest) ToInput() (inventory.SaleInput, error) {
	itemID, locationID, err := parseItemLocation(r.ItemID, r.LocationID)
	if err != nil {
		return inventory.SaleInput{}, err
	}
	headerID, lineID, err := parseTransactionRefs(r.TransactionHeaderID, r.TransactionLineID)
	if err != nil {
		return inventory.SaleInput{}, err
	}
	return inventory.SaleInput{
		ItemID:              itemID,
		LocationID:          locationID,
		Quantity:            r.Quantity,
		TransactionHeaderID: headerID,
		TransactionLineID:   lineID,
		Notes:               r.Notes,
	}, nil
}

// RentalOutRequest reserves stock going out on rent.
type RentalOutRequest struct {
	ItemID     string         `json:"itemId" binding:"required,uuid"`
	LocationID string         `json:"locationId" binding:"required,uuid"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
	UnitIDs    []string       `json:"unitIds" binding:"omitempty,dive,uuid"`

	TransactionHeaderID string `json:"transactionHeaderId" binding:"omitempty,uuid"`
	TransactionLineID   string `json:"transactionLineId" binding:"omitempty,uuid"`
	Notes               string `json:"notes"`
}

// ToInput converts the request to a service input.
func (r RentalOutRequest) ToInput() (inventory.RentalOutInput, error) {
	itemID, locationID, err := parseItemLocation(r.ItemID, r.LocationID)
	if err != nil {
		return inventory.RentalOutInput{}, err
	}
	unitIDs, err := parseIDList(r.UnitIDs, "unitIds")
	if err != nil {
		return inventory.RentalOutInput{}, err
	}
	headerID, lineID, err := parseTransactionRefs(r.TransactionHeaderID, r.TransactionLineID)
	if err != nil {
		return inventory.RentalOutInput{}, err
	}
	return inventory.RentalOutInput{
		ItemID:              itemID,
		LocationID:          locationID,
		Quantity:            r.Quantity,
		UnitIDs:             unitIDs,
		TransactionHeaderID: headerID,
		TransactionLineID:   lineID,
		Notes:               r.Notes,
	}, nil
}

// RentalReturnRequest books a rental return, split into clean and damaged.
type RentalReturnRequest struct {
	ItemID     string `json:"itemId" binding:"required,uuid"`
	LocationID string `json:"locationId" binding:"required,uuid"`

	QuantityClean   types.Quantity `json:"quantityClean"`
	QuantityDamaged types.Quantity `json:"quantityDamaged"`

	CleanUnitIDs   []string `json:"cleanUnitIds" binding:"omitempty,dive,uuid"`
	DamagedUnitIDs []string `json:"damagedUnitIds" binding:"omitempty,dive,uuid"`

	TransactionHeaderID string `json:"transactionHeaderId" binding:"omitempty,uuid"`
	TransactionLineID   string `json:"transactionLineId" binding:"omitempty,uuid"`
	Notes               string `json:"notes"`
}

// ToInput converts the request to a service input.
func (r RentalReturnRequest) ToInput() (inventory.RentalReturnInput, error) {
	itemID, locationID, err := parseItemLocation(r.ItemID, r.LocationID)
	if err != nil {
		return inventory.RentalReturnInput{}, err
	}
	cleanIDs, err := parseIDList(r.CleanUnitIDs, "cleanUnitIds")
	if err != nil {
		return inventory.RentalReturnInput{}, err
	}
	damagedIDs, err := parseIDList(r.DamagedUnitIDs, "damagedUnitIds")
	if err != nil {
		return inventory.RentalReturnInput{}, err
	}
	headerID, lineID, err := parseTransactionRefs(r.TransactionHeaderID, r.TransactionLineID)
	if err != nil {
		return inventory.RentalReturnInput{}, err
	}
	return inventory.RentalReturnInput{
		ItemID:              itemID,
		LocationID:          locationID,
		QuantityClean:       r.QuantityClean,
		QuantityDamaged:     r.QuantityDamaged,
		CleanUnitIDs:        cleanIDs,
		DamagedUnitIDs:      damagedIDs,
		TransactionHeaderID: headerID,
		TransactionLineID:   lineID,
		Notes:               r.Notes,
	}, nil
}

// RepairRequest moves damaged quantity through the repair pools.
type RepairRequest struct {
	ItemID     string         `json:"itemId" binding:"required,uuid"`
	LocationID string         `json:"locationId" binding:"required,uuid"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`
	UnitIDs    []string       `json:"unitIds" binding:"omitempty,dive,uuid"`

	// RepairedCondition applies to repair completion only ("A".."D").
	RepairedCondition string `json:"repairedCondition"`
}

// ToInput converts the request to a service input.
func (r RepairRequest) ToInput() (inventory.RepairInput, error) {
	itemID, locationID, err := parseItemLocation(r.ItemID, r.LocationID)
	if err != nil {
		return inventory.RepairInput{}, err
	}
	unitIDs, err := parseIDList(r.UnitIDs, "unitIds")
	if err != nil {
		return inventory.RepairInput{}, err
	}
	in := inventory.RepairInput{
		ItemID:     itemID,
		LocationID: locationID,
		Quantity:   r.Quantity,
		UnitIDs:    unitIDs,
	}
	if r.RepairedCondition != "" {
		cond, err := inventory.ConditionFromCode(r.RepairedCondition)
		if err != nil {
			return inventory.RepairInput{}, err
		}
		in.RepairedCondition = cond
	}
	return in, nil
}

// WriteOffRequest writes damaged quantity off the books.
type WriteOffRequest struct {
	ItemID     string         `json:"itemId" binding:"required,uuid"`
	LocationID string         `json:"locationId" binding:"required,uuid"`
	Quantity   types.Quantity `json:"quantity" binding:"required"`

	// Theft records the loss as theft instead of damage.
	Theft   bool     `json:"theft"`
	UnitIDs []string `json:"unitIds" binding:"omitempty,dive,uuid"`
	Notes   string   `json:"notes"`
}

// ToInput converts the request to a service input.
func (r WriteOffRequest) ToInput() (inventory.WriteOffInput, error) {
	itemID, locationID, err := parseItemLocation(r.ItemID, r.LocationID)
	if err != nil {
		return inventory.WriteOffInput{}, err
	}
	unitIDs, err := parseIDList(r.UnitIDs, "unitIds")
	if err != nil {
		return inventory.WriteOffInput{}, err
	}
	return inventory.WriteOffInput{
		ItemID:     itemID,
		LocationID: locationID,
		Quantity:   r.Quantity,
		Theft:      r.Theft,
		UnitIDs:    unitIDs,
		Notes:      r.Notes,
	}, nil
}

// AdjustmentRequest corrects on-hand after a physical count.
type AdjustmentRequest struct {
	ItemID     string         `json:"itemId" binding:"required,uuid"`
	LocationID string         `json:"locationId" binding:"required,uuid"`
	Delta      types.Quantity `json:"delta" binding:"required"`
	Reason     string         `json:"reason" binding:"required"`

	TransactionHeaderID string `json:"transactionHeaderId" binding:"omitempty,uuid"`
	TransactionLineID   string `json:"transactionLineId" binding:"omitempty,uuid"`
}

// ToInput converts the request to a service input.
func (r AdjustmentRequest) ToInput() (inventory.AdjustmentInput, error) {
	itemID, locationID, err := parseItemLocation(r.ItemID, r.LocationID)
	if err != nil {
		return inventory.AdjustmentInput{}, err
	}
	headerID, lineID, err := parseTransactionRefs(r.TransactionHeaderID, r.TransactionLineID)
	if err != nil {
		return inventory.AdjustmentInput{}, err
	}
	return inventory.AdjustmentInput{
		ItemID:              itemID,
		LocationID:          locationID,
		Delta:               r.Delta,
		Reason:              r.Reason,
		TransactionHeaderID: headerID,
		TransactionLineID:   lineID,
	}, nil
}

// --- Response DTOs ---

// UnitResponse represents an inventory unit in API responses.
type UnitResponse struct {
	ID         string `json:"id"`
	ItemID     string `json:"itemId"`
	LocationID string `json:"locationId"`

	SKU          string `json:"sku"`
	SerialNumber string `json:"serialNumber,omitempty"`
	BatchCode    string `json:"batchCode,omitempty"`

	Status    inventory.UnitStatus    `json:"status"`
	Condition inventory.UnitCondition `json:"condition"`
	Quantity  types.Quantity          `json:"quantity"`

	PurchasePrice       types.Money `json:"purchasePrice"`
	SalePrice           types.Money `json:"salePrice"`
	RentalRatePerPeriod types.Money `json:"rentalRatePerPeriod"`
	SecurityDeposit     types.Money `json:"securityDeposit"`

	PurchaseDate    *time.Time `json:"purchaseDate,omitempty"`
	IsRentalBlocked bool       `json:"isRentalBlocked"`
	IsActive        bool       `json:"isActive"`
}

// FromUnit converts entity to response DTO.
func FromUnit(u *inventory.InventoryUnit) UnitResponse {
	resp := UnitResponse{
		ID:                  u.ID.String(),
		ItemID:              u.ItemID.String(),
		LocationID:          u.LocationID.String(),
		SKU:                 u.SKU,
		Status:              u.Status,
		Condition:           u.Condition,
		Quantity:            u.Quantity,
		PurchasePrice:       u.PurchasePrice,
		SalePrice:           u.SalePrice,
		RentalRatePerPeriod: u.RentalRatePerPeriod,
		SecurityDeposit:     u.SecurityDeposit,
		PurchaseDate:        u.PurchaseDate,
		IsRentalBlocked:     u.IsRentalBlocked,
		IsActive:            u.IsActive,
	}
	if sn, ok := u.SerialNumber(); ok {
		resp.SerialNumber = sn
	}
	if bc, ok := u.BatchCode(); ok {
		resp.BatchCode = bc
	}
	return resp
}

// PurchaseResponse returns the state written by a purchase.
type PurchaseResponse struct {
	Level    StockLevelResponse    `json:"level"`
	Movement StockMovementResponse `json:"movement"`
	Units    []UnitResponse        `json:"units"`
}

// FromPurchaseResult converts the service result to a response DTO.
func FromPurchaseResult(res *inventory.PurchaseResult) PurchaseResponse {
	units := make([]UnitResponse, len(res.Units))
	for i, u := range res.Units {
		units[i] = FromUnit(u)
	}
	return PurchaseResponse{
		Level:    FromStockLevel(res.Level),
		Movement: FromStockMovement(res.Movement),
		Units:    units,
	}
}

// --- Parse helpers ---

func parseItemLocation(itemStr, locationStr string) (id.ID, id.ID, error) {
	itemID, err := id.Parse(itemStr)
	if err != nil {
		return id.Nil(), id.Nil(), apperror.NewValidation("invalid itemId format")
	}
	locationID, err := id.Parse(locationStr)
	if err != nil {
		return id.Nil(), id.Nil(), apperror.NewValidation("invalid locationId format")
	}
	return itemID, locationID, nil
}

func parseTransactionRefs(headerStr, lineStr string) (*id.ID, *id.ID, error) {
	var headerID, lineID *id.ID
	if headerStr != "" {
		parsed, err := id.Parse(headerStr)
		if err != nil {
			return nil, nil, apperror.NewValidation("invalid transactionHeaderId format")
		}
		headerID = &parsed
	}
	if lineStr != "" {
		parsed, err := id.Parse(lineStr)
		if err != nil {
			return nil, nil, apperror.NewValidation("invalid transactionLineId format")
		}
		lineID = &parsed
	}
	return headerID, lineID, nil
}

func parseIDList(values []string, field string) ([]id.ID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids := make([]id.ID, len(values))
	for i, v := range values {
		parsed, err := id.Parse(v)
		if err != nil {
			return nil, apperror.NewValidation("invalid id in "+field).WithDetail("value", v)
		}
		ids[i] = parsed
	}
	return ids, nil
}

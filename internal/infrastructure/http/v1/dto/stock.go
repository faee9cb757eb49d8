package dto

import (
	"time"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/inventory"
)

// --- Response DTOs for stock levels and movements ---

// StockLevelResponse represents a stock level in API responses.
type StockLevelResponse struct {
	ID         string `json:"id"`
	ItemID     string `json:"itemId"`
	LocationID string `json:"locationId"`

	QuantityOnHand       types.Quantity `json:"quantityOnHand"`
	QuantityAvailable    types.Quantity `json:"quantityAvailable"`
	QuantityOnRent       types.Quantity `json:"quantityOnRent"`
	QuantityDamaged      types.Quantity `json:"quantityDamaged"`
	QuantityUnderRepair  types.Quantity `json:"quantityUnderRepair"`
	QuantityBeyondRepair types.Quantity `json:"quantityBeyondRepair"`

	IsActive  bool      `json:"isActive"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromStockLevel converts entity to response DTO.
func FromStockLevel(l *inventory.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ID:                   l.ID.String(),
		ItemID:               l.ItemID.String(),
		LocationID:           l.LocationID.String(),
		QuantityOnHand:       l.QuantityOnHand,
		QuantityAvailable:    l.QuantityAvailable,
		QuantityOnRent:       l.QuantityOnRent,
		QuantityDamaged:      l.QuantityDamaged,
		QuantityUnderRepair:  l.QuantityUnderRepair,
		QuantityBeyondRepair: l.QuantityBeyondRepair,
		IsActive:             l.IsActive,
		UpdatedAt:            l.UpdatedAt,
	}
}

// StockMovementResponse represents a ledger entry in API responses.
type StockMovementResponse struct {
	ID           string `json:"id"`
	StockLevelID string `json:"stockLevelId"`
	ItemID       string `json:"itemId"`
	LocationID   string `json:"locationId"`

	MovementType   inventory.MovementType `json:"movementType"`
	QuantityChange types.Quantity         `json:"quantityChange"`
	QuantityBefore types.Quantity         `json:"quantityBefore"`
	QuantityAfter  types.Quantity         `json:"quantityAfter"`

	TransactionHeaderID *string `json:"transactionHeaderId,omitempty"`
	TransactionLineID   *string `json:"transactionLineId,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

// FromStockMovement converts entity to response DTO.
func FromStockMovement(m inventory.StockMovement) StockMovementResponse {
	resp := StockMovementResponse{
		ID:             m.ID.String(),
		StockLevelID:   m.StockLevelID.String(),
		ItemID:         m.ItemID.String(),
		LocationID:     m.LocationID.String(),
		MovementType:   m.MovementType,
		QuantityChange: m.QuantityChange,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
		CreatedBy:      m.CreatedBy,
	}
	if m.TransactionHeaderID != nil {
		s := m.TransactionHeaderID.String()
		resp.TransactionHeaderID = &s
	}
	if m.TransactionLineID != nil {
		s := m.TransactionLineID.String()
		resp.TransactionLineID = &s
	}
	return resp
}

// AvailabilityResponse reports the rentable quantity at a location.
type AvailabilityResponse struct {
	ItemID     string         `json:"itemId"`
	LocationID string         `json:"locationId"`
	Quantity   types.Quantity `json:"quantity"`
}

// FulfillmentResponse answers a can-we-rent-this-much query.
type FulfillmentResponse struct {
	ItemID     string         `json:"itemId"`
	LocationID string         `json:"locationId"`
	Quantity   types.Quantity `json:"quantity"`
	Fulfill    bool           `json:"canFulfill"`
}

package dto

import (
	"time"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/item"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/location"
)

// --- Item catalog ---

// CreateItemRequest registers a new item definition.
type CreateItemRequest struct {
	SKU                  string `json:"sku" binding:"required"`
	Name                 string `json:"name" binding:"required"`
	SerialNumberRequired bool   `json:"serialNumberRequired"`

	IsRentable *bool `json:"isRentable"`
	IsSaleable *bool `json:"isSaleable"`

	DefaultSalePrice       types.Money `json:"defaultSalePrice"`
	DefaultRentalRate      types.Money `json:"defaultRentalRate"`
	DefaultSecurityDeposit types.Money `json:"defaultSecurityDeposit"`
}

// ToEntity converts the request to a new item entity.
func (r CreateItemRequest) ToEntity() *item.Item {
	it := item.NewItem(r.SKU, r.Name, r.SerialNumberRequired)
	if r.IsRentable != nil {
		it.IsRentable = *r.IsRentable
	}
	if r.IsSaleable != nil {
		it.IsSaleable = *r.IsSaleable
	}
	it.DefaultSalePrice = r.DefaultSalePrice
	it.DefaultRentalRate = r.DefaultRentalRate
	it.DefaultSecurityDeposit = r.DefaultSecurityDeposit
	return it
}

// ItemResponse represents an item in API responses.
type ItemResponse struct {
	ID                   string `json:"id"`
	SKU                  string `json:"sku"`
	Name                 string `json:"name"`
	SerialNumberRequired bool   `json:"serialNumberRequired"`
	IsRentable           bool   `json:"isRentable"`
	IsSaleable           bool   `json:"isSaleable"`

	DefaultSalePrice       types.Money `json:"defaultSalePrice"`
	DefaultRentalRate      types.Money `json:"defaultRentalRate"`
	DefaultSecurityDeposit types.Money `json:"defaultSecurityDeposit"`

	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromItem converts entity to response DTO.
func FromItem(it *item.Item) ItemResponse {
	return ItemResponse{
		ID:                     it.ID.String(),
		SKU:                    it.SKU,
		Name:                   it.Name,
		SerialNumberRequired:   it.SerialNumberRequired,
		IsRentable:             it.IsRentable,
		IsSaleable:             it.IsSaleable,
		DefaultSalePrice:       it.DefaultSalePrice,
		DefaultRentalRate:      it.DefaultRentalRate,
		DefaultSecurityDeposit: it.DefaultSecurityDeposit,
		IsActive:               it.IsActive,
		CreatedAt:              it.CreatedAt,
	}
}

// --- Location catalog ---

// CreateLocationRequest registers a new stock-holding location.
type CreateLocationRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required,oneof=store warehouse service_center"`
}

// ToEntity converts the request to a new location entity.
func (r CreateLocationRequest) ToEntity() *location.Location {
	return location.NewLocation(r.Code, r.Name, location.LocationType(r.Type))
}

// LocationResponse represents a location in API responses.
type LocationResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromLocation converts entity to response DTO.
func FromLocation(loc *location.Location) LocationResponse {
	return LocationResponse{
		ID:        loc.ID.String(),
		Code:      loc.Code,
		Name:      loc.Name,
		Type:      string(loc.Type),
		IsActive:  loc.IsActive,
		CreatedAt: loc.CreatedAt,
	}
}

// Package item provides the item master-data catalog.
// The inventory core consumes it at interface level: the base SKU, the
// serial-number requirement flag, and default pricing.
package item

import (
	"context"
	"time"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
)

// Item is a rentable/saleable product definition.
type Item struct {
	ID id.ID `db:"id" json:"id"`

	// SKU is the base stock-keeping unit; generated unit SKUs derive from it.
	SKU  string `db:"sku" json:"sku"`
	Name string `db:"name" json:"name"`

	// SerialNumberRequired marks items tracked per physical unit.
	SerialNumberRequired bool `db:"serial_number_required" json:"serialNumberRequired"`

	IsRentable bool `db:"is_rentable" json:"isRentable"`
	IsSaleable bool `db:"is_saleable" json:"isSaleable"`

	// Default pricing applied to new inventory units unless overridden.
	DefaultSalePrice       types.Money `db:"default_sale_price" json:"defaultSalePrice"`
	DefaultRentalRate      types.Money `db:"default_rental_rate" json:"defaultRentalRate"`
	DefaultSecurityDeposit types.Money `db:"default_security_deposit" json:"defaultSecurityDeposit"`

	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewItem creates an item with required fields.
func NewItem(sku, name string, serialRequired bool) *Item {
	now := time.Now().UTC()
	return &Item{
		ID:                     id.New(),
		SKU:                    sku,
		Name:                   name,
		SerialNumberRequired:   serialRequired,
		IsRentable:             true,
		IsSaleable:             true,
		DefaultSalePrice:       types.ZeroMoney(),
		DefaultRentalRate:      types.ZeroMoney(),
		DefaultSecurityDeposit: types.ZeroMoney(),
		IsActive:               true,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// Validate checks entity invariants.
func (i *Item) Validate(ctx context.Context) error {
	if i.SKU == "" {
		return apperror.NewValidation("item sku is required").WithDetail("field", "sku")
	}
	if i.Name == "" {
		return apperror.NewValidation("item name is required").WithDetail("field", "name")
	}
	return nil
}

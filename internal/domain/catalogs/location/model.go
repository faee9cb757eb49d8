// Package location provides the location master-data catalog (stores,
// warehouses, service centers).
package location

import (
	"context"
	"time"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
)

// LocationType classifies a stock-holding location.
type LocationType string

const (
	TypeStore         LocationType = "store"
	TypeWarehouse     LocationType = "warehouse"
	TypeServiceCenter LocationType = "service_center"
)

// Location is a physical place stock can sit at.
type Location struct {
	ID   id.ID        `db:"id" json:"id"`
	Code string       `db:"code" json:"code"`
	Name string       `db:"name" json:"name"`
	Type LocationType `db:"type" json:"type"`

	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewLocation creates a location with required fields.
func NewLocation(code, name string, locType LocationType) *Location {
	now := time.Now().UTC()
	return &Location{
		ID:        id.New(),
		Code:      code,
		Name:      name,
		Type:      locType,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks entity invariants.
func (l *Location) Validate(ctx context.Context) error {
	if l.Code == "" {
		return apperror.NewValidation("location code is required").WithDetail("field", "code")
	}
	if l.Name == "" {
		return apperror.NewValidation("location name is required").WithDetail("field", "name")
	}
	switch l.Type {
	case TypeStore, TypeWarehouse, TypeServiceCenter:
	default:
		return apperror.NewValidation("invalid location type").
			WithDetail("field", "type").
			WithDetail("value", string(l.Type))
	}
	return nil
}

// Repository defines persistence operations for locations.
type Repository interface {
	Create(ctx context.Context, loc *Location) error
	GetByID(ctx context.Context, locationID id.ID) (*Location, error)
	GetByCode(ctx context.Context, code string) (*Location, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

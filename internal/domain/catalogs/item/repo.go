package item

import (
	"context"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
)

// Repository defines persistence operations for items.
type Repository interface {
	Create(ctx context.Context, it *Item) error
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)
	GetBySKU(ctx context.Context, sku string) (*Item, error)
	Update(ctx context.Context, it *Item) error
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
}

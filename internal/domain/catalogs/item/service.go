package item

import (
	"context"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/pkg/logger"
)

// Service provides business operations for the item catalog.
type Service struct {
	repo Repository
}

// NewService creates a new item service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new item.
func (s *Service) Create(ctx context.Context, it *Item) error {
	if err := it.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.repo.ExistsBySKU(ctx, it.SKU)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("item", "sku", it.SKU)
	}

	if err := s.repo.Create(ctx, it); err != nil {
		return err
	}

	logger.Info(ctx, "item created", "id", it.ID, "sku", it.SKU)
	return nil
}

// GetByID retrieves an item.
func (s *Service) GetByID(ctx context.Context, itemID id.ID) (*Item, error) {
	return s.repo.GetByID(ctx, itemID)
}

// GetBySKU retrieves an item by its base SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Item, error) {
	return s.repo.GetBySKU(ctx, sku)
}

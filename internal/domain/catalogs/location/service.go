package location

import (
	"context"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/pkg/logger"
)

// Service provides business operations for the location catalog.
type Service struct {
	repo Repository
}

// NewService creates a new location service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new location.
func (s *Service) Create(ctx context.Context, loc *Location) error {
	if err := loc.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.repo.ExistsByCode(ctx, loc.Code)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("location", "code", loc.Code)
	}

	if err := s.repo.Create(ctx, loc); err != nil {
		return err
	}

	logger.Info(ctx, "location created", "id", loc.ID, "code", loc.Code)
	return nil
}

// GetByID retrieves a location.
func (s *Service) GetByID(ctx context.Context, locationID id.ID) (*Location, error) {
	return s.repo.GetByID(ctx, locationID)
}

// GetByCode retrieves a location by its code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Location, error) {
	return s.repo.GetByCode(ctx, code)
}

package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
)

// skuMaxAttempts bounds the collision retry loop in GenerateSKU.
const skuMaxAttempts = 10

// CodeGenerator produces unit SKUs and batch codes. SKU generation reads
// the unit registry to pick the next free sequence number; batch codes are
// derived locally and never hit storage.
type CodeGenerator struct {
	units UnitRepository
}

func NewCodeGenerator(units UnitRepository) *CodeGenerator {
	return &CodeGenerator{units: units}
}

// GenerateSKU returns "<itemSKU>-NNNN" where NNNN continues the item's unit
// sequence. Candidates that already exist (units created and retired out of
// band, or concurrent generators) are skipped; after skuMaxAttempts the
// generator falls back to a timestamp suffix which is unique in practice.
func (g *CodeGenerator) GenerateSKU(ctx context.Context, itemID id.ID, itemSKU string) (string, error) {
	count, err := g.units.CountUnitsForItem(ctx, itemID)
	if err != nil {
		return "", fmt.Errorf("count units for item %s: %w", itemID, err)
	}

	base := strings.ToUpper(strings.TrimSpace(itemSKU))
	for attempt := 0; attempt < skuMaxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s-%04d", base, count+1+int64(attempt))
		exists, err := g.units.SKUExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check sku %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return fmt.Sprintf("%s-%d", base, time.Now().UnixNano()), nil
}

// GenerateBatchCode returns "BATCH-YYYYMMDD-<prefix>-<suffix>" where prefix
// is the head of the item SKU and suffix comes from a fresh UUID. Codes are
// unique without a registry lookup; the unique constraint on batch_code
// backstops the astronomically unlikely collision.
func (g *CodeGenerator) GenerateBatchCode(itemSKU string, now time.Time) string {
	prefix := strings.ToUpper(strings.TrimSpace(itemSKU))
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("BATCH-%s-%s-%s", now.Format("20060102"), prefix, suffix)
}

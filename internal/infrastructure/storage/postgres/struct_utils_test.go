package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/item"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/inventory"
)

type AuditedFields struct {
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
}

type mockRecord struct {
	AuditedFields
	ID   id.ID  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Skip string `db:"-" json:"skip"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockRecord]()
	assert.Equal(t, []string{"created_at", "created_by", "id", "code"}, cols)
}

func TestExtractDBColumnsDomainTypes(t *testing.T) {
	itemCols := ExtractDBColumns[item.Item]()
	for _, expected := range []string{"id", "sku", "serial_number_required", "default_sale_price"} {
		assert.Contains(t, itemCols, expected)
	}

	levelCols := ExtractDBColumns[inventory.StockLevel]()
	for _, expected := range []string{
		"quantity_on_hand", "quantity_available", "quantity_on_rent",
		"quantity_damaged", "quantity_under_repair", "quantity_beyond_repair",
	} {
		assert.Contains(t, levelCols, expected)
	}
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	rec := mockRecord{
		AuditedFields: AuditedFields{CreatedAt: now, CreatedBy: "tester"},
		ID:            id.New(),
		Code:          "TEST",
		Skip:          "hidden",
	}

	m := StructToMap(rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, "TEST", m["code"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "tester", m["created_by"])
	assert.NotContains(t, m, "-")
	assert.Len(t, m, 4)
}

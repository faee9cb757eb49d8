package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
)

func serializedUnit(t *testing.T) *InventoryUnit {
	t.Helper()
	return NewSerializedUnit(id.New(), id.New(), "CAM-0001", "SN-100", ConditionNew, "tester")
}

func TestUnitIdentity(t *testing.T) {
	u := serializedUnit(t)
	assert.True(t, u.IsSerialized())
	sn, ok := u.SerialNumber()
	require.True(t, ok)
	assert.Equal(t, "SN-100", sn)
	_, ok = u.BatchCode()
	assert.False(t, ok)
	assert.Equal(t, types.NewQuantityFromInt(1), u.Quantity)

	b := NewBatchUnit(id.New(), id.New(), "CBL-0001", "BATCH-20260831-CBL-AB12CD34", qty(25), ConditionGood, "tester")
	assert.False(t, b.IsSerialized())
	code, ok := b.BatchCode()
	require.True(t, ok)
	assert.Equal(t, "BATCH-20260831-CBL-AB12CD34", code)
	assert.Equal(t, qty(25), b.Quantity)
}

func TestUnitValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*InventoryUnit)
		wantErr bool
	}{
		{"valid serialized", func(u *InventoryUnit) {}, false},
		{"missing sku", func(u *InventoryUnit) { u.SKU = "" }, true},
		{"empty serial", func(u *InventoryUnit) { u.Identity = SerializedIdentity{} }, true},
		{"serialized quantity not one", func(u *InventoryUnit) { u.Quantity = qty(2) }, true},
		{"no identity", func(u *InventoryUnit) { u.Identity = nil }, true},
		{"batch without code", func(u *InventoryUnit) {
			u.Identity = BatchIdentity{}
			u.Quantity = qty(10)
		}, true},
		{"batch zero quantity", func(u *InventoryUnit) {
			u.Identity = BatchIdentity{BatchCode: "BATCH-X"}
			u.Quantity = qty(0)
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := serializedUnit(t)
			tt.mutate(u)
			err := u.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUnitRentalCycle(t *testing.T) {
	now := time.Now().UTC()
	u := serializedUnit(t)

	require.NoError(t, u.RentOut(now, "tester"))
	assert.Equal(t, UnitStatusRented, u.Status)

	// Cannot rent twice.
	assert.Error(t, u.RentOut(now, "tester"))

	require.NoError(t, u.ReturnFromRent(false, "tester"))
	assert.Equal(t, UnitStatusAvailable, u.Status)
	assert.Equal(t, ConditionNew, u.Condition)
}

func TestUnitDamagedReturnDegradesCondition(t *testing.T) {
	now := time.Now().UTC()
	u := serializedUnit(t)

	require.NoError(t, u.RentOut(now, "tester"))
	require.NoError(t, u.ReturnFromRent(true, "tester"))

	assert.Equal(t, UnitStatusDamaged, u.Status)
	assert.Equal(t, ConditionDamaged, u.Condition)
	assert.False(t, u.CanBeRented(now))
}

func TestUnitRentalGuards(t *testing.T) {
	now := time.Now().UTC()

	t.Run("rental blocked", func(t *testing.T) {
		u := serializedUnit(t)
		u.BlockRental(true, "tester")
		assert.False(t, u.CanBeRented(now))
		assert.Error(t, u.RentOut(now, "tester"))
	})

	t.Run("poor condition", func(t *testing.T) {
		u := serializedUnit(t)
		u.Condition = ConditionPoor
		assert.False(t, u.CanBeRented(now))
	})

	t.Run("maintenance overdue", func(t *testing.T) {
		u := serializedUnit(t)
		overdue := now.Add(-24 * time.Hour)
		u.NextMaintenanceDate = &overdue
		assert.True(t, u.MaintenanceOverdue(now))
		assert.Error(t, u.RentOut(now, "tester"))

		due := now.Add(24 * time.Hour)
		u.NextMaintenanceDate = &due
		assert.True(t, u.CanBeRented(now))
	})

	t.Run("inactive", func(t *testing.T) {
		u := serializedUnit(t)
		u.IsActive = false
		assert.False(t, u.CanBeRented(now))
	})
}

func TestUnitMaintenanceCycle(t *testing.T) {
	now := time.Now().UTC()
	u := serializedUnit(t)

	require.NoError(t, u.MarkDamaged("tester"))
	assert.Equal(t, UnitStatusDamaged, u.Status)

	require.NoError(t, u.SendToMaintenance(now, "tester"))
	assert.Equal(t, UnitStatusMaintenance, u.Status)
	require.NotNil(t, u.LastMaintenanceDate)

	require.NoError(t, u.ReturnFromMaintenance(ConditionGood, "tester"))
	assert.Equal(t, UnitStatusAvailable, u.Status)
	assert.Equal(t, ConditionGood, u.Condition)
	assert.True(t, u.CanBeRented(now))
}

func TestUnitSoldIsTerminal(t *testing.T) {
	now := time.Now().UTC()
	u := serializedUnit(t)

	require.NoError(t, u.MarkAsSold("tester"))
	assert.Equal(t, UnitStatusSold, u.Status)

	assert.Error(t, u.RentOut(now, "tester"))
	assert.Error(t, u.SendToMaintenance(now, "tester"))
	assert.Error(t, u.Retire("tester"))
}

func TestUnitRetire(t *testing.T) {
	u := serializedUnit(t)

	require.NoError(t, u.Retire("tester"))
	assert.Equal(t, UnitStatusRetired, u.Status)
	assert.False(t, u.IsActive)

	err := u.Retire("tester")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule))
}

package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/item"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/location"
)

// --- In-memory mocks ---

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func pairKey(itemID, locationID id.ID) string {
	return itemID.String() + "|" + locationID.String()
}

type memStockRepo struct {
	levels    map[string]*StockLevel
	movements []StockMovement
}

func newMemStockRepo() *memStockRepo {
	return &memStockRepo{levels: make(map[string]*StockLevel)}
}

func (r *memStockRepo) GetLevel(ctx context.Context, itemID, locationID id.ID) (*StockLevel, error) {
	level, ok := r.levels[pairKey(itemID, locationID)]
	if !ok {
		return nil, apperror.NewNotFound("stock level", pairKey(itemID, locationID))
	}
	cp := *level
	return &cp, nil
}

func (r *memStockRepo) GetLevelForUpdate(ctx context.Context, itemID, locationID id.ID) (*StockLevel, error) {
	return r.GetLevel(ctx, itemID, locationID)
}

func (r *memStockRepo) GetOrCreateLevel(ctx context.Context, itemID, locationID id.ID, actor string) (*StockLevel, error) {
	if level, ok := r.levels[pairKey(itemID, locationID)]; ok {
		cp := *level
		return &cp, nil
	}
	level := NewStockLevel(itemID, locationID, actor)
	cp := *level
	r.levels[pairKey(itemID, locationID)] = &cp
	return level, nil
}

func (r *memStockRepo) UpdateLevel(ctx context.Context, level *StockLevel) error {
	cp := *level
	r.levels[pairKey(level.ItemID, level.LocationID)] = &cp
	return nil
}

func (r *memStockRepo) InsertMovement(ctx context.Context, movement StockMovement) error {
	r.movements = append(r.movements, movement)
	return nil
}

func (r *memStockRepo) LatestQuantityAfter(ctx context.Context, itemID id.ID) (types.Quantity, bool, error) {
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ItemID == itemID {
			return r.movements[i].QuantityAfter, true, nil
		}
	}
	return 0, false, nil
}

func (r *memStockRepo) ListMovements(ctx context.Context, itemID id.ID, filter MovementFilter) ([]StockMovement, error) {
	var out []StockMovement
	for _, m := range r.movements {
		if m.ItemID != itemID {
			continue
		}
		if filter.LocationID != nil && m.LocationID != *filter.LocationID {
			continue
		}
		if filter.MovementType != nil && m.MovementType != *filter.MovementType {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *memStockRepo) movementsFor(itemID id.ID) []StockMovement {
	out, _ := r.ListMovements(context.Background(), itemID, MovementFilter{})
	return out
}

type memUnitRepo struct {
	units map[id.ID]*InventoryUnit
}

func newMemUnitRepo() *memUnitRepo {
	return &memUnitRepo{units: make(map[id.ID]*InventoryUnit)}
}

func (r *memUnitRepo) InsertUnits(ctx context.Context, units []*InventoryUnit) error {
	for _, u := range units {
		if exists, _ := r.SKUExists(ctx, u.SKU); exists {
			return apperror.NewDuplicate("inventory unit", "sku", u.SKU)
		}
		if sn, ok := u.SerialNumber(); ok {
			taken, err := r.ExistingSerialNumbers(ctx, []string{sn})
			if err != nil {
				return err
			}
			if len(taken) > 0 {
				return apperror.NewDuplicate("inventory unit", "serial_number", sn)
			}
		}
		cp := *u
		r.units[u.ID] = &cp
	}
	return nil
}

func (r *memUnitRepo) GetUnit(ctx context.Context, unitID id.ID) (*InventoryUnit, error) {
	u, ok := r.units[unitID]
	if !ok {
		return nil, apperror.NewNotFound("inventory unit", unitID)
	}
	cp := *u
	return &cp, nil
}

func (r *memUnitRepo) GetUnitForUpdate(ctx context.Context, unitID id.ID) (*InventoryUnit, error) {
	return r.GetUnit(ctx, unitID)
}

func (r *memUnitRepo) UpdateUnit(ctx context.Context, u *InventoryUnit) error {
	if _, ok := r.units[u.ID]; !ok {
		return apperror.NewNotFound("inventory unit", u.ID)
	}
	cp := *u
	r.units[u.ID] = &cp
	return nil
}

func (r *memUnitRepo) ListAvailableForRental(ctx context.Context, itemID, locationID id.ID, limit int) ([]*InventoryUnit, error) {
	var out []*InventoryUnit
	for _, u := range r.units {
		if u.ItemID != itemID || u.LocationID != locationID {
			continue
		}
		if !u.IsActive || u.Status != UnitStatusAvailable || u.IsRentalBlocked {
			continue
		}
		cp := *u
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memUnitRepo) SKUExists(ctx context.Context, sku string) (bool, error) {
	for _, u := range r.units {
		if u.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUnitRepo) CountUnitsForItem(ctx context.Context, itemID id.ID) (int64, error) {
	var n int64
	for _, u := range r.units {
		if u.ItemID == itemID {
			n++
		}
	}
	return n, nil
}

func (r *memUnitRepo) ExistingSerialNumbers(ctx context.Context, serials []string) ([]string, error) {
	var out []string
	for _, want := range serials {
		for _, u := range r.units {
			if sn, ok := u.SerialNumber(); ok && sn == want {
				out = append(out, want)
				break
			}
		}
	}
	return out, nil
}

type memItemRepo struct {
	items map[id.ID]*item.Item
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[id.ID]*item.Item)}
}

func (r *memItemRepo) Create(ctx context.Context, it *item.Item) error {
	r.items[it.ID] = it
	return nil
}

func (r *memItemRepo) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	it, ok := r.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("item", itemID)
	}
	return it, nil
}

func (r *memItemRepo) GetBySKU(ctx context.Context, sku string) (*item.Item, error) {
	for _, it := range r.items {
		if it.SKU == sku {
			return it, nil
		}
	}
	return nil, apperror.NewNotFound("item", sku)
}

func (r *memItemRepo) Update(ctx context.Context, it *item.Item) error {
	r.items[it.ID] = it
	return nil
}

func (r *memItemRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	_, err := r.GetBySKU(ctx, sku)
	if err != nil {
		return false, nil
	}
	return true, nil
}

type memLocationRepo struct {
	locations map[id.ID]*location.Location
}

func newMemLocationRepo() *memLocationRepo {
	return &memLocationRepo{locations: make(map[id.ID]*location.Location)}
}

func (r *memLocationRepo) Create(ctx context.Context, loc *location.Location) error {
	r.locations[loc.ID] = loc
	return nil
}

func (r *memLocationRepo) GetByID(ctx context.Context, locationID id.ID) (*location.Location, error) {
	loc, ok := r.locations[locationID]
	if !ok {
		return nil, apperror.NewNotFound("location", locationID)
	}
	return loc, nil
}

func (r *memLocationRepo) GetByCode(ctx context.Context, code string) (*location.Location, error) {
	for _, loc := range r.locations {
		if loc.Code == code {
			return loc, nil
		}
	}
	return nil, apperror.NewNotFound("location", code)
}

func (r *memLocationRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	return err == nil, nil
}

// --- Fixture ---

type fixture struct {
	svc       *Service
	stock     *memStockRepo
	units     *memUnitRepo
	items     *memItemRepo
	locations *memLocationRepo

	serialItem *item.Item
	batchItem  *item.Item
	store      *location.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		stock:     newMemStockRepo(),
		units:     newMemUnitRepo(),
		items:     newMemItemRepo(),
		locations: newMemLocationRepo(),
	}
	f.svc = NewService(f.stock, f.units, f.items, f.locations, passthroughTxManager{})

	f.serialItem = item.NewItem("CAM", "Camera", true)
	f.serialItem.DefaultSalePrice = types.MustMoney("450.00")
	f.serialItem.DefaultRentalRate = types.MustMoney("25.00")
	f.serialItem.DefaultSecurityDeposit = types.MustMoney("100.00")
	require.NoError(t, f.items.Create(context.Background(), f.serialItem))

	f.batchItem = item.NewItem("CBL", "HDMI Cable", false)
	require.NoError(t, f.items.Create(context.Background(), f.batchItem))

	f.store = location.NewLocation("MAIN", "Main Store", location.TypeStore)
	require.NoError(t, f.locations.Create(context.Background(), f.store))

	return f
}

func (f *fixture) purchaseBatch(t *testing.T, quantity int64) {
	t.Helper()
	_, err := f.svc.UpdateStockForPurchase(context.Background(), PurchaseInput{
		ItemID:     f.batchItem.ID,
		LocationID: f.store.ID,
		Quantity:   qty(quantity),
		UnitCost:   types.MustMoney("4.50"),
	})
	require.NoError(t, err)
}

// --- Purchase ---

func TestPurchaseCreatesSerializedUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	headerID, lineID := id.New(), id.New()

	result, err := f.svc.UpdateStockForPurchase(ctx, PurchaseInput{
		ItemID:              f.serialItem.ID,
		LocationID:          f.store.ID,
		Quantity:            qty(3),
		UnitCost:            types.MustMoney("100.00"),
		TaxRate:             types.MustMoney("10"),
		DiscountAmount:      types.MustMoney("30.00"),
		SerialNumbers:       []string{"SN1", "SN2", "SN3"},
		TransactionHeaderID: &headerID,
		TransactionLineID:   &lineID,
	})
	require.NoError(t, err)

	level, err := f.stock.GetLevel(ctx, f.serialItem.ID, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(3), level.QuantityOnHand)
	assert.Equal(t, qty(3), level.QuantityAvailable)
	assert.Equal(t, qty(0), level.QuantityOnRent)

	movements := f.stock.movementsFor(f.serialItem.ID)
	require.Len(t, movements, 1)
	assert.Equal(t, MovementTypePurchase, movements[0].MovementType)
	assert.Equal(t, qty(3), movements[0].QuantityChange)
	assert.Equal(t, qty(0), movements[0].QuantityBefore)
	assert.Equal(t, qty(3), movements[0].QuantityAfter)
	require.NotNil(t, movements[0].TransactionHeaderID)
	assert.Equal(t, headerID, *movements[0].TransactionHeaderID)

	require.Len(t, result.Units, 3)
	seenSerials := make(map[string]struct{})
	seenSKUs := make(map[string]struct{})
	for _, u := range result.Units {
		assert.Equal(t, UnitStatusAvailable, u.Status)
		assert.Equal(t, ConditionNew, u.Condition)
		sn, ok := u.SerialNumber()
		require.True(t, ok)
		seenSerials[sn] = struct{}{}
		seenSKUs[u.SKU] = struct{}{}
		// (3*100 - 30) * 1.10 / 3 = 99 per unit.
		assert.True(t, u.PurchasePrice.Equal(types.MustMoney("99")), "got %s", u.PurchasePrice)
		assert.True(t, u.SalePrice.Equal(f.serialItem.DefaultSalePrice))
		require.NotNil(t, u.TransactionLineID)
		assert.Equal(t, lineID, *u.TransactionLineID)
	}
	assert.Len(t, seenSerials, 3)
	assert.Len(t, seenSKUs, 3)
}

func TestPurchaseBatchItemCreatesSingleUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.UpdateStockForPurchase(ctx, PurchaseInput{
		ItemID:        f.batchItem.ID,
		LocationID:    f.store.ID,
		Quantity:      qty(25),
		UnitCost:      types.MustMoney("4.00"),
		ConditionCode: "B",
	})
	require.NoError(t, err)

	require.Len(t, result.Units, 1)
	u := result.Units[0]
	assert.False(t, u.IsSerialized())
	code, ok := u.BatchCode()
	require.True(t, ok)
	assert.NotEmpty(t, code)
	assert.Equal(t, qty(25), u.Quantity)
	assert.Equal(t, ConditionGood, u.Condition)
	// Batches carry the undivided line total.
	assert.True(t, u.PurchasePrice.Equal(types.MustMoney("100")), "got %s", u.PurchasePrice)
}

func TestSequentialPurchasesChainMovements(t *testing.T) {
	f := newFixture(t)

	for _, q := range []int64{5, 8, 3} {
		f.purchaseBatch(t, q)
	}

	movements := f.stock.movementsFor(f.batchItem.ID)
	require.Len(t, movements, 3)

	wantChain := []struct{ before, after int64 }{{0, 5}, {5, 13}, {13, 16}}
	for i, want := range wantChain {
		assert.Equal(t, qty(want.before), movements[i].QuantityBefore, "movement %d", i)
		assert.Equal(t, qty(want.after), movements[i].QuantityAfter, "movement %d", i)
	}

	level, err := f.stock.GetLevel(context.Background(), f.batchItem.ID, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(16), level.QuantityOnHand)
}

func TestPurchaseSerialValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		input    PurchaseInput
		wantCode string
	}{
		{
			name: "count mismatch",
			input: PurchaseInput{
				ItemID: f.serialItem.ID, LocationID: f.store.ID,
				Quantity: qty(3), SerialNumbers: []string{"SN1", "SN2"},
			},
			wantCode: apperror.CodeSerialNumberMismatch,
		},
		{
			name: "fractional quantity",
			input: PurchaseInput{
				ItemID: f.serialItem.ID, LocationID: f.store.ID,
				Quantity: types.NewQuantityFromFloat64(1.5), SerialNumbers: []string{"SN1", "SN2"},
			},
			wantCode: apperror.CodeInvalidQuantity,
		},
		{
			name: "empty serial",
			input: PurchaseInput{
				ItemID: f.serialItem.ID, LocationID: f.store.ID,
				Quantity: qty(2), SerialNumbers: []string{"SN1", "  "},
			},
			wantCode: apperror.CodeValidation,
		},
		{
			name: "duplicate within batch",
			input: PurchaseInput{
				ItemID: f.serialItem.ID, LocationID: f.store.ID,
				Quantity: qty(2), SerialNumbers: []string{"SN1", "SN1"},
			},
			wantCode: apperror.CodeDuplicate,
		},
		{
			name: "serials for batch item",
			input: PurchaseInput{
				ItemID: f.batchItem.ID, LocationID: f.store.ID,
				Quantity: qty(2), SerialNumbers: []string{"SN1", "SN2"},
			},
			wantCode: apperror.CodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateStockForPurchase(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, tt.wantCode), "got %v", err)
			// Failed validation must leave nothing behind.
			assert.Empty(t, f.stock.movements)
			assert.Empty(t, f.units.units)
		})
	}
}

func TestPurchaseRejectsSerialAlreadyInRegistry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateStockForPurchase(ctx, PurchaseInput{
		ItemID: f.serialItem.ID, LocationID: f.store.ID,
		Quantity: qty(1), SerialNumbers: []string{"SN1"},
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStockForPurchase(ctx, PurchaseInput{
		ItemID: f.serialItem.ID, LocationID: f.store.ID,
		Quantity: qty(2), SerialNumbers: []string{"SN2", "SN1"},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsDuplicate(err), "got %v", err)

	level, err := f.stock.GetLevel(ctx, f.serialItem.ID, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(1), level.QuantityOnHand)
	assert.Len(t, f.stock.movementsFor(f.serialItem.ID), 1)
	assert.Len(t, f.units.units, 1)
}

func TestPurchaseUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateStockForPurchase(ctx, PurchaseInput{
		ItemID: id.New(), LocationID: f.store.ID, Quantity: qty(1),
	})
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	_, err = f.svc.UpdateStockForPurchase(ctx, PurchaseInput{
		ItemID: f.batchItem.ID, LocationID: id.New(), Quantity: qty(1),
	})
	assert.True(t, apperror.IsNotFound(err), "got %v", err)
}

// --- Sale ---

func TestSaleDecreasesStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchaseBatch(t, 10)

	err := f.svc.UpdateStockForSale(ctx, SaleInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(4),
	})
	require.NoError(t, err)

	level, err := f.stock.GetLevel(ctx, f.batchItem.ID, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(6), level.QuantityOnHand)
	assert.Equal(t, qty(6), level.QuantityAvailable)

	movements := f.stock.movementsFor(f.batchItem.ID)
	require.Len(t, movements, 2)
	sale := movements[1]
	assert.Equal(t, MovementTypeSale, sale.MovementType)
	assert.Equal(t, qty(-4), sale.QuantityChange)
	assert.Equal(t, qty(10), sale.QuantityBefore)
	assert.Equal(t, qty(6), sale.QuantityAfter)
}

func TestSaleInsufficientStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchaseBatch(t, 2)

	err := f.svc.UpdateStockForSale(ctx, SaleInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(5),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err), "got %v", err)

	level, err := f.stock.GetLevel(ctx, f.batchItem.ID, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(2), level.QuantityOnHand)
	assert.Equal(t, qty(2), level.QuantityAvailable)
	assert.Len(t, f.stock.movementsFor(f.batchItem.ID), 1)
}

// --- Rental ---

func TestRentalOutThenDamagedReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchaseBatch(t, 10)

	require.NoError(t, f.svc.UpdateStockForRentalOut(ctx, RentalOutInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(4),
	}))
	require.NoError(t, f.svc.UpdateStockForRentalReturn(ctx, RentalReturnInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, QuantityDamaged: qty(4),
	}))

	level, err := f.stock.GetLevel(ctx, f.batchItem.ID, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(6), level.QuantityAvailable)
	assert.Equal(t, qty(0), level.QuantityOnRent)
	assert.Equal(t, qty(4), level.QuantityDamaged)
	assert.Equal(t, qty(10), level.QuantityOnHand)

	movements := f.stock.movementsFor(f.batchItem.ID)
	require.Len(t, movements, 3)
	assert.Equal(t, MovementTypeRentalOut, movements[1].MovementType)
	assert.Equal(t, qty(-4), movements[1].QuantityChange)
	assert.Equal(t, MovementTypeRentalReturn, movements[2].MovementType)
	assert.Equal(t, qty(4), movements[2].QuantityChange)
}

func TestRentalOutMovesUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.UpdateStockForPurchase(ctx, PurchaseInput{
		ItemID: f.serialItem.ID, LocationID: f.store.ID,
		Quantity: qty(2), SerialNumbers: []string{"SN1", "SN2"},
		UnitCost: types.MustMoney("100.00"),
	})
	require.NoError(t, err)
	unitIDs := []id.ID{result.Units[0].ID, result.Units[1].ID}

	require.NoError(t, f.svc.UpdateStockForRentalOut(ctx, RentalOutInput{
		ItemID: f.serialItem.ID, LocationID: f.store.ID,
		Quantity: qty(2), UnitIDs: unitIDs,
	}))
	for _, unitID := range unitIDs {
		u, err := f.units.GetUnit(ctx, unitID)
		require.NoError(t, err)
		assert.Equal(t, UnitStatusRented, u.Status)
	}

	require.NoError(t, f.svc.UpdateStockForRentalReturn(ctx, RentalReturnInput{
		ItemID: f.serialItem.ID, LocationID: f.store.ID,
		QuantityClean:   qty(1),
		QuantityDamaged: qty(1),
		CleanUnitIDs:    unitIDs[:1],
		DamagedUnitIDs:  unitIDs[1:],
	}))

	clean, err := f.units.GetUnit(ctx, unitIDs[0])
	require.NoError(t, err)
	assert.Equal(t, UnitStatusAvailable, clean.Status)

	damaged, err := f.units.GetUnit(ctx, unitIDs[1])
	require.NoError(t, err)
	assert.Equal(t, UnitStatusDamaged, damaged.Status)
	assert.Equal(t, ConditionDamaged, damaged.Condition)
}

func TestRentalUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchaseBatch(t, 5)

	err := f.svc.UpdateStockForRentalOut(ctx, RentalOutInput{
		ItemID: id.New(), LocationID: f.store.ID, Quantity: qty(1),
	})
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	err = f.svc.UpdateStockForRentalOut(ctx, RentalOutInput{
		ItemID: f.batchItem.ID, LocationID: id.New(), Quantity: qty(1),
	})
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	err = f.svc.UpdateStockForRentalReturn(ctx, RentalReturnInput{
		ItemID: id.New(), LocationID: f.store.ID, QuantityClean: qty(1),
	})
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	assert.Len(t, f.stock.movementsFor(f.batchItem.ID), 1)
}

func TestRentalOutInsufficientAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchaseBatch(t, 3)

	err := f.svc.UpdateStockForRentalOut(ctx, RentalOutInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(5),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err), "got %v", err)
	assert.Len(t, f.stock.movementsFor(f.batchItem.ID), 1)
}

// --- Repair and write-off ---

func TestRepairFlowProducesNoMovements(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchaseBatch(t, 10)

	require.NoError(t, f.svc.UpdateStockForRentalOut(ctx, RentalOutInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(6),
	}))
	require.NoError(t, f.svc.UpdateStockForRentalReturn(ctx, RentalReturnInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, QuantityDamaged: qty(6),
	}))
	movementsBefore := len(f.stock.movementsFor(f.batchItem.ID))

	base := RepairInput{ItemID: f.batchItem.ID, LocationID: f.store.ID}

	in := base
	in.Quantity = qty(6)
	require.NoError(t, f.svc.MoveToRepair(ctx, in))

	in = base
	in.Quantity = qty(4)
	require.NoError(t, f.svc.CompleteRepair(ctx, in))

	in = base
	in.Quantity = qty(2)
	require.NoError(t, f.svc.MarkBeyondRepair(ctx, in))

	// Pool moves never touch on-hand, so the ledger stays silent.
	assert.Len(t, f.stock.movementsFor(f.batchItem.ID), movementsBefore)

	level, err := f.stock.GetLevel(ctx, f.batchItem.ID, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(10), level.QuantityOnHand)
	assert.Equal(t, qty(8), level.QuantityAvailable)
	assert.Equal(t, qty(0), level.QuantityDamaged)
	assert.Equal(t, qty(0), level.QuantityUnderRepair)
	assert.Equal(t, qty(2), level.QuantityBeyondRepair)
}

func TestWriteOffRecordsLossMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchaseBatch(t, 10)

	require.NoError(t, f.svc.UpdateStockForRentalOut(ctx, RentalOutInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(3),
	}))
	require.NoError(t, f.svc.UpdateStockForRentalReturn(ctx, RentalReturnInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, QuantityDamaged: qty(3),
	}))
	require.NoError(t, f.svc.MoveToRepair(ctx, RepairInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(3),
	}))
	require.NoError(t, f.svc.MarkBeyondRepair(ctx, RepairInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(3),
	}))

	require.NoError(t, f.svc.WriteOffDamaged(ctx, WriteOffInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(2), Theft: true,
	}))
	require.NoError(t, f.svc.WriteOffDamaged(ctx, WriteOffInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(1),
	}))

	level, err := f.stock.GetLevel(ctx, f.batchItem.ID, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(7), level.QuantityOnHand)
	assert.Equal(t, qty(0), level.QuantityBeyondRepair)

	movements := f.stock.movementsFor(f.batchItem.ID)
	require.Len(t, movements, 5)
	assert.Equal(t, MovementTypeTheftLoss, movements[3].MovementType)
	assert.Equal(t, qty(-2), movements[3].QuantityChange)
	assert.Equal(t, MovementTypeDamageLoss, movements[4].MovementType)
	assert.Equal(t, qty(-1), movements[4].QuantityChange)
}

// --- Adjustment ---

func TestAdjustStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.AdjustStock(ctx, AdjustmentInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID,
		Delta: qty(5), Reason: "initial count",
	}))
	require.NoError(t, f.svc.AdjustStock(ctx, AdjustmentInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID,
		Delta: qty(-2), Reason: "shrinkage",
	}))

	level, err := f.stock.GetLevel(ctx, f.batchItem.ID, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(3), level.QuantityOnHand)
	assert.Equal(t, qty(3), level.QuantityAvailable)

	movements := f.stock.movementsFor(f.batchItem.ID)
	require.Len(t, movements, 2)
	assert.Equal(t, MovementTypeAdjustmentPos, movements[0].MovementType)
	assert.Equal(t, MovementTypeAdjustmentNeg, movements[1].MovementType)
	assert.Equal(t, "shrinkage", movements[1].Notes)
}

func TestAdjustStockNegativeWhileOnRent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchaseBatch(t, 10)

	require.NoError(t, f.svc.UpdateStockForRentalOut(ctx, RentalOutInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(8),
	}))

	// The item's chain sits at 2 after the checkout, but the location still
	// holds 10 on-hand; a count correction of -5 must go through.
	require.NoError(t, f.svc.AdjustStock(ctx, AdjustmentInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID,
		Delta: qty(-5), Reason: "cycle count",
	}))

	level, err := f.stock.GetLevel(ctx, f.batchItem.ID, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(5), level.QuantityOnHand)
	assert.Equal(t, qty(4), level.QuantityOnRent)
	assert.Equal(t, qty(1), level.QuantityAvailable)

	movements := f.stock.movementsFor(f.batchItem.ID)
	require.Len(t, movements, 3)
	adj := movements[2]
	assert.Equal(t, MovementTypeAdjustmentNeg, adj.MovementType)
	assert.Equal(t, qty(-5), adj.QuantityChange)
	// Rebased on the pre-adjustment on-hand, not the drawn-down chain.
	assert.Equal(t, qty(10), adj.QuantityBefore)
	assert.Equal(t, qty(5), adj.QuantityAfter)
}

// --- Read paths ---

func TestGetRentableQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Missing stock level reads as zero.
	q, err := f.svc.GetRentableQuantity(ctx, f.batchItem.ID, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(0), q)

	f.purchaseBatch(t, 10)
	require.NoError(t, f.svc.UpdateStockForRentalOut(ctx, RentalOutInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(4),
	}))

	q, err = f.svc.GetRentableQuantity(ctx, f.batchItem.ID, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(6), q)
}

func TestCanFulfillRentalService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok, err := f.svc.CanFulfillRental(ctx, f.batchItem.ID, f.store.ID, qty(1))
	require.NoError(t, err)
	assert.False(t, ok)

	f.purchaseBatch(t, 4)

	ok, err = f.svc.CanFulfillRental(ctx, f.batchItem.ID, f.store.ID, qty(4))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CanFulfillRental(ctx, f.batchItem.ID, f.store.ID, qty(5))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetAvailableUnitsForRental(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.UpdateStockForPurchase(ctx, PurchaseInput{
		ItemID: f.serialItem.ID, LocationID: f.store.ID,
		Quantity: qty(3), SerialNumbers: []string{"SN1", "SN2", "SN3"},
	})
	require.NoError(t, err)

	// Block one unit administratively.
	blocked, err := f.units.GetUnit(ctx, result.Units[0].ID)
	require.NoError(t, err)
	blocked.BlockRental(true, "tester")
	require.NoError(t, f.units.UpdateUnit(ctx, blocked))

	units, err := f.svc.GetAvailableUnitsForRental(ctx, f.serialItem.ID, f.store.ID, 3)
	require.NoError(t, err)
	assert.Len(t, units, 2)
	for _, u := range units {
		assert.NotEqual(t, blocked.ID, u.ID)
	}

	units, err = f.svc.GetAvailableUnitsForRental(ctx, f.serialItem.ID, f.store.ID, 1)
	require.NoError(t, err)
	assert.Len(t, units, 1)
}

func TestGetMovementHistoryFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchaseBatch(t, 10)
	require.NoError(t, f.svc.UpdateStockForSale(ctx, SaleInput{
		ItemID: f.batchItem.ID, LocationID: f.store.ID, Quantity: qty(2),
	}))

	all, err := f.svc.GetMovementHistory(ctx, f.batchItem.ID, MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	saleType := MovementTypeSale
	sales, err := f.svc.GetMovementHistory(ctx, f.batchItem.ID, MovementFilter{MovementType: &saleType})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, MovementTypeSale, sales[0].MovementType)
}

// --- Audit hook ---

type captureAudit struct {
	entries []AuditEntry
	err     error
}

func (a *captureAudit) Record(ctx context.Context, entry AuditEntry) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, entry)
	return nil
}

func TestAuditRecordedAfterCommit(t *testing.T) {
	f := newFixture(t)
	audit := &captureAudit{}
	f.svc.WithAudit(audit)

	f.purchaseBatch(t, 5)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "stock.purchase", audit.entries[0].Operation)
	assert.Equal(t, f.batchItem.ID, audit.entries[0].ItemID)
}

func TestAuditFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.svc.WithAudit(&captureAudit{err: fmt.Errorf("sink unavailable")})

	// The operation still succeeds.
	f.purchaseBatch(t, 5)
}

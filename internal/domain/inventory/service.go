package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	appctx "github.com/tluanga-dev/rental-manager-sub001/internal/core/context"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/tx"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/item"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/location"
	"github.com/tluanga-dev/rental-manager-sub001/pkg/logger"
)

// Service executes the reconciliation protocol. Every stock-mutating
// operation runs the same sequence inside one transaction: resolve foreign
// entities, lock the StockLevel row, apply the transition, append the ledger
// movement, create or mutate units. Any failure rolls the whole operation
// back; there is no partial-success state.
type Service struct {
	stock     StockRepository
	units     UnitRepository
	items     item.Repository
	locations location.Repository
	codegen   *CodeGenerator
	txManager tx.Manager
	audit     AuditPort
}

// NewService creates the reconciliation service.
func NewService(
	stock StockRepository,
	units UnitRepository,
	items item.Repository,
	locations location.Repository,
	txManager tx.Manager,
) *Service {
	return &Service{
		stock:     stock,
		units:     units,
		items:     items,
		locations: locations,
		codegen:   NewCodeGenerator(units),
		txManager: txManager,
	}
}

// WithAudit attaches an audit sink. Audit failures are logged, never fatal.
func (s *Service) WithAudit(audit AuditPort) *Service {
	s.audit = audit
	return s
}

// PurchaseInput carries one purchase line into the reconciliation protocol.
// Cost fields come from the originating transaction line.
type PurchaseInput struct {
	ItemID     id.ID
	LocationID id.ID
	Quantity   types.Quantity

	UnitCost       types.Money
	TaxRate        types.Money // percent
	DiscountAmount types.Money // absolute, for the whole line

	// ConditionCode is the purchase-document grade ("A".."D"); empty means new.
	ConditionCode string

	// SerialNumbers must match the quantity exactly when the item requires
	// serial tracking, and must be absent otherwise.
	SerialNumbers []string

	TransactionHeaderID *id.ID
	TransactionLineID   *id.ID
	Notes               string
}

// PurchaseResult reports what one purchase wrote.
type PurchaseResult struct {
	Level    *StockLevel
	Movement StockMovement
	Units    []*InventoryUnit
}

// UpdateStockForPurchase receives purchased quantity into stock: it locks or
// lazily creates the StockLevel, increases on-hand and available, appends a
// purchase movement, and registers one unit per serial number (or one batch
// unit for the whole quantity). Everything happens in one transaction.
func (s *Service) UpdateStockForPurchase(ctx context.Context, in PurchaseInput) (*PurchaseResult, error) {
	if !in.Quantity.IsPositive() {
		return nil, apperror.NewInvalidQuantity("purchase quantity must be positive")
	}

	itm, err := s.items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.locations.GetByID(ctx, in.LocationID); err != nil {
		return nil, err
	}

	condition := ConditionNew
	if in.ConditionCode != "" {
		condition, err = ConditionFromCode(in.ConditionCode)
		if err != nil {
			return nil, err
		}
	}

	serials, err := validateSerials(itm, in.Quantity, in.SerialNumbers)
	if err != nil {
		return nil, err
	}

	var result *PurchaseResult
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		actor := appctx.ActorID(ctx)

		// Registry-wide duplicate check runs inside the transaction so the
		// unique constraint backstops the remaining race window.
		if len(serials) > 0 {
			existing, err := s.units.ExistingSerialNumbers(ctx, serials)
			if err != nil {
				return fmt.Errorf("check serial numbers: %w", err)
			}
			if len(existing) > 0 {
				return apperror.NewDuplicate("inventory unit", "serial_number", existing[0])
			}
		}

		level, err := s.stock.GetOrCreateLevel(ctx, in.ItemID, in.LocationID, actor)
		if err != nil {
			return fmt.Errorf("get or create stock level: %w", err)
		}
		snapshot := level.QuantityOnHand

		if err := level.Receive(in.Quantity); err != nil {
			return err
		}
		level.UpdatedBy = actor
		if err := s.stock.UpdateLevel(ctx, level); err != nil {
			return fmt.Errorf("update stock level: %w", err)
		}

		before, err := s.movementBefore(ctx, in.ItemID, snapshot)
		if err != nil {
			return err
		}
		movement, err := NewStockMovement(
			level.ID, in.ItemID, in.LocationID,
			MovementTypePurchase, in.Quantity, before, before+in.Quantity, actor)
		if err != nil {
			return err
		}
		movement = movement.
			WithTransaction(in.TransactionHeaderID, in.TransactionLineID).
			WithNotes(in.Notes)
		if err := s.stock.InsertMovement(ctx, movement); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}

		units, err := s.createPurchaseUnits(ctx, itm, in, serials, condition, actor)
		if err != nil {
			return err
		}
		if err := s.units.InsertUnits(ctx, units); err != nil {
			return fmt.Errorf("insert units: %w", err)
		}

		result = &PurchaseResult{Level: level, Movement: movement, Units: units}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "stock.purchase", in.ItemID, in.LocationID, map[string]any{
		"quantity": in.Quantity.String(),
		"units":    len(result.Units),
	})
	logger.Info(ctx, "stock received",
		"item_id", in.ItemID,
		"location_id", in.LocationID,
		"quantity", in.Quantity,
		"units_created", len(result.Units),
	)
	return result, nil
}

// createPurchaseUnits builds the unit rows for one purchase line. Serialized
// items get one unit per serial number, each valued at the per-unit share of
// the taxed line total. Batch items get a single unit carrying the undivided
// total cost; batches are valued as a whole, not per piece.
func (s *Service) createPurchaseUnits(
	ctx context.Context,
	itm *item.Item,
	in PurchaseInput,
	serials []string,
	condition UnitCondition,
	actor string,
) ([]*InventoryUnit, error) {
	now := time.Now().UTC()
	total := purchaseLineTotal(in.Quantity, in.UnitCost, in.TaxRate, in.DiscountAmount)

	if itm.SerialNumberRequired {
		perUnit := total.Div(in.Quantity.Decimal()).Round(4)
		units := make([]*InventoryUnit, 0, len(serials))
		for _, sn := range serials {
			sku, err := s.codegen.GenerateSKU(ctx, itm.ID, itm.SKU)
			if err != nil {
				return nil, err
			}
			u := NewSerializedUnit(itm.ID, in.LocationID, sku, sn, condition, actor)
			applyPurchaseDefaults(u, itm, perUnit, now)
			u.TransactionLineID = in.TransactionLineID
			units = append(units, u)
		}
		return units, nil
	}

	sku, err := s.codegen.GenerateSKU(ctx, itm.ID, itm.SKU)
	if err != nil {
		return nil, err
	}
	batchCode := s.codegen.GenerateBatchCode(itm.SKU, now)
	u := NewBatchUnit(itm.ID, in.LocationID, sku, batchCode, in.Quantity, condition, actor)
	applyPurchaseDefaults(u, itm, total, now)
	u.TransactionLineID = in.TransactionLineID
	return []*InventoryUnit{u}, nil
}

// purchaseLineTotal computes (quantity * unit_cost - discount) * (1 + tax/100).
func purchaseLineTotal(quantity types.Quantity, unitCost, taxRate, discount types.Money) types.Money {
	gross := quantity.Decimal().Mul(unitCost).Sub(discount)
	return gross.Mul(decimal.NewFromInt(1).Add(taxRate.Div(decimal.NewFromInt(100))))
}

func applyPurchaseDefaults(u *InventoryUnit, itm *item.Item, purchasePrice types.Money, now time.Time) {
	u.PurchasePrice = purchasePrice
	u.SalePrice = itm.DefaultSalePrice
	u.RentalRatePerPeriod = itm.DefaultRentalRate
	u.SecurityDeposit = itm.DefaultSecurityDeposit
	u.PurchaseDate = &now
}

// validateSerials normalizes and validates the supplied serial numbers
// against the item's tracking mode, before any write happens.
func validateSerials(itm *item.Item, quantity types.Quantity, serials []string) ([]string, error) {
	if !itm.SerialNumberRequired {
		if len(serials) > 0 {
			return nil, apperror.NewValidation("serial numbers supplied for a non-serialized item").
				WithDetail("item_id", itm.ID.String())
		}
		return nil, nil
	}

	if quantity.Int64Scaled()%types.QuantityScale != 0 {
		return nil, apperror.NewInvalidQuantity("serialized items require a whole-number quantity")
	}
	expected := int(quantity.Int64Scaled() / types.QuantityScale)
	if len(serials) != expected {
		return nil, apperror.NewSerialNumberMismatch(itm.ID.String(), expected, len(serials))
	}

	seen := make(map[string]struct{}, len(serials))
	cleaned := make([]string, 0, len(serials))
	for _, sn := range serials {
		sn = strings.TrimSpace(sn)
		if sn == "" {
			return nil, apperror.NewValidation("serial numbers must be non-empty").
				WithDetail("item_id", itm.ID.String())
		}
		if _, dup := seen[sn]; dup {
			return nil, apperror.NewDuplicate("purchase line", "serial_number", sn)
		}
		seen[sn] = struct{}{}
		cleaned = append(cleaned, sn)
	}
	return cleaned, nil
}

// SaleInput carries one sale line into the reconciliation protocol.
type SaleInput struct {
	ItemID     id.ID
	LocationID id.ID
	Quantity   types.Quantity

	TransactionHeaderID *id.ID
	TransactionLineID   *id.ID
	Notes               string
}

// UpdateStockForSale removes sold quantity from stock. Marking individual
// units as sold is the sale workflow's concern; the aggregate and the ledger
// are reconciled here.
func (s *Service) UpdateStockForSale(ctx context.Context, in SaleInput) error {
	if !in.Quantity.IsPositive() {
		return apperror.NewInvalidQuantity("sale quantity must be positive")
	}
	if _, err := s.items.GetByID(ctx, in.ItemID); err != nil {
		return err
	}
	if _, err := s.locations.GetByID(ctx, in.LocationID); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		actor := appctx.ActorID(ctx)

		level, err := s.stock.GetLevelForUpdate(ctx, in.ItemID, in.LocationID)
		if err != nil {
			return err
		}
		snapshot := level.QuantityOnHand

		if err := level.Sell(in.Quantity); err != nil {
			return err
		}
		level.UpdatedBy = actor
		if err := s.stock.UpdateLevel(ctx, level); err != nil {
			return fmt.Errorf("update stock level: %w", err)
		}

		return s.appendMovement(ctx, level, MovementTypeSale, in.Quantity.Neg(),
			snapshot, in.TransactionHeaderID, in.TransactionLineID, in.Notes, actor)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, "stock.sale", in.ItemID, in.LocationID, map[string]any{
		"quantity": in.Quantity.String(),
	})
	logger.Info(ctx, "stock sold",
		"item_id", in.ItemID,
		"location_id", in.LocationID,
		"quantity", in.Quantity,
	)
	return nil
}

// RentalOutInput carries one rental checkout into the reconciliation protocol.
// UnitIDs optionally names the physical units handed to the customer; when
// present they move through the unit state machine in the same transaction.
type RentalOutInput struct {
	ItemID     id.ID
	LocationID id.ID
	Quantity   types.Quantity
	UnitIDs    []id.ID

	TransactionHeaderID *id.ID
	TransactionLineID   *id.ID
	Notes               string
}

// UpdateStockForRentalOut moves quantity from available to on-rent and rents
// out the named units. Rentals draw from available only; damaged and repair
// pools are categorically excluded.
func (s *Service) UpdateStockForRentalOut(ctx context.Context, in RentalOutInput) error {
	if !in.Quantity.IsPositive() {
		return apperror.NewInvalidQuantity("rental quantity must be positive")
	}
	if _, err := s.items.GetByID(ctx, in.ItemID); err != nil {
		return err
	}
	if _, err := s.locations.GetByID(ctx, in.LocationID); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		actor := appctx.ActorID(ctx)
		now := time.Now().UTC()

		level, err := s.stock.GetLevelForUpdate(ctx, in.ItemID, in.LocationID)
		if err != nil {
			return err
		}
		snapshot := level.QuantityOnHand

		if !level.CanFulfillRental(in.Quantity) {
			return apperror.NewInsufficientStock(
				in.ItemID.String(), in.LocationID.String(),
				in.Quantity.String(), level.QuantityAvailable.String())
		}
		if err := level.RentOut(in.Quantity); err != nil {
			return err
		}
		level.UpdatedBy = actor
		if err := s.stock.UpdateLevel(ctx, level); err != nil {
			return fmt.Errorf("update stock level: %w", err)
		}

		for _, unitID := range in.UnitIDs {
			u, err := s.units.GetUnitForUpdate(ctx, unitID)
			if err != nil {
				return err
			}
			if err := u.RentOut(now, actor); err != nil {
				return err
			}
			if err := s.units.UpdateUnit(ctx, u); err != nil {
				return fmt.Errorf("update unit %s: %w", unitID, err)
			}
		}

		return s.appendMovement(ctx, level, MovementTypeRentalOut, in.Quantity.Neg(),
			snapshot, in.TransactionHeaderID, in.TransactionLineID, in.Notes, actor)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, "stock.rental_out", in.ItemID, in.LocationID, map[string]any{
		"quantity": in.Quantity.String(),
		"units":    len(in.UnitIDs),
	})
	logger.Info(ctx, "stock rented out",
		"item_id", in.ItemID,
		"location_id", in.LocationID,
		"quantity", in.Quantity,
	)
	return nil
}

// RentalReturnInput carries one rental return. Clean quantity goes back to
// available; damaged quantity goes to the damaged pool and never back to
// available.
type RentalReturnInput struct {
	ItemID     id.ID
	LocationID id.ID

	QuantityClean   types.Quantity
	QuantityDamaged types.Quantity

	CleanUnitIDs   []id.ID
	DamagedUnitIDs []id.ID

	TransactionHeaderID *id.ID
	TransactionLineID   *id.ID
	Notes               string
}

// UpdateStockForRentalReturn processes a rental return, splitting the
// returned quantity between the available and damaged pools and updating the
// named units accordingly.
func (s *Service) UpdateStockForRentalReturn(ctx context.Context, in RentalReturnInput) error {
	total := in.QuantityClean + in.QuantityDamaged
	if !total.IsPositive() || in.QuantityClean.IsNegative() || in.QuantityDamaged.IsNegative() {
		return apperror.NewInvalidQuantity("return quantities must be non-negative and sum to a positive total")
	}
	if _, err := s.items.GetByID(ctx, in.ItemID); err != nil {
		return err
	}
	if _, err := s.locations.GetByID(ctx, in.LocationID); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		actor := appctx.ActorID(ctx)

		level, err := s.stock.GetLevelForUpdate(ctx, in.ItemID, in.LocationID)
		if err != nil {
			return err
		}
		snapshot := level.QuantityOnHand

		if in.QuantityClean.IsPositive() {
			if err := level.ReturnFromRent(in.QuantityClean); err != nil {
				return err
			}
		}
		if in.QuantityDamaged.IsPositive() {
			if err := level.ReturnDamagedFromRent(in.QuantityDamaged); err != nil {
				return err
			}
		}
		level.UpdatedBy = actor
		if err := s.stock.UpdateLevel(ctx, level); err != nil {
			return fmt.Errorf("update stock level: %w", err)
		}

		if err := s.returnUnits(ctx, in.CleanUnitIDs, false, actor); err != nil {
			return err
		}
		if err := s.returnUnits(ctx, in.DamagedUnitIDs, true, actor); err != nil {
			return err
		}

		notes := in.Notes
		if in.QuantityDamaged.IsPositive() && notes == "" {
			notes = fmt.Sprintf("returned with %s damaged", in.QuantityDamaged)
		}
		return s.appendMovement(ctx, level, MovementTypeRentalReturn, total,
			snapshot, in.TransactionHeaderID, in.TransactionLineID, notes, actor)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, "stock.rental_return", in.ItemID, in.LocationID, map[string]any{
		"quantity_clean":   in.QuantityClean.String(),
		"quantity_damaged": in.QuantityDamaged.String(),
	})
	logger.Info(ctx, "rental returned",
		"item_id", in.ItemID,
		"location_id", in.LocationID,
		"quantity_clean", in.QuantityClean,
		"quantity_damaged", in.QuantityDamaged,
	)
	return nil
}

func (s *Service) returnUnits(ctx context.Context, unitIDs []id.ID, damaged bool, actor string) error {
	for _, unitID := range unitIDs {
		u, err := s.units.GetUnitForUpdate(ctx, unitID)
		if err != nil {
			return err
		}
		if err := u.ReturnFromRent(damaged, actor); err != nil {
			return err
		}
		if err := s.units.UpdateUnit(ctx, u); err != nil {
			return fmt.Errorf("update unit %s: %w", unitID, err)
		}
	}
	return nil
}

// RepairInput moves quantity between the damage/repair pools. These moves do
// not change on-hand, so they produce no ledger movement.
type RepairInput struct {
	ItemID     id.ID
	LocationID id.ID
	Quantity   types.Quantity
	UnitIDs    []id.ID

	// RepairedCondition grades units coming back from repair; defaults to good.
	RepairedCondition UnitCondition
}

// MoveToRepair moves quantity from the damaged pool to under-repair and sends
// the named units to maintenance.
func (s *Service) MoveToRepair(ctx context.Context, in RepairInput) error {
	return s.repairTransition(ctx, in, "stock.move_to_repair",
		func(level *StockLevel) error { return level.MoveToRepair(in.Quantity) },
		func(u *InventoryUnit, actor string) error {
			return u.SendToMaintenance(time.Now().UTC(), actor)
		})
}

// CompleteRepair returns quantity from under-repair to the available pool;
// repaired units re-enter the registry at the given condition.
func (s *Service) CompleteRepair(ctx context.Context, in RepairInput) error {
	condition := in.RepairedCondition
	if condition == "" {
		condition = ConditionGood
	}
	return s.repairTransition(ctx, in, "stock.complete_repair",
		func(level *StockLevel) error { return level.CompleteRepair(in.Quantity) },
		func(u *InventoryUnit, actor string) error {
			return u.ReturnFromMaintenance(condition, actor)
		})
}

// MarkBeyondRepair moves quantity from under-repair to beyond-repair, from
// where it can only be written off.
func (s *Service) MarkBeyondRepair(ctx context.Context, in RepairInput) error {
	return s.repairTransition(ctx, in, "stock.mark_beyond_repair",
		func(level *StockLevel) error { return level.MarkBeyondRepair(in.Quantity) },
		nil)
}

func (s *Service) repairTransition(
	ctx context.Context,
	in RepairInput,
	operation string,
	transition func(*StockLevel) error,
	unitTransition func(*InventoryUnit, string) error,
) error {
	if !in.Quantity.IsPositive() {
		return apperror.NewInvalidQuantity("repair quantity must be positive")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		actor := appctx.ActorID(ctx)

		level, err := s.stock.GetLevelForUpdate(ctx, in.ItemID, in.LocationID)
		if err != nil {
			return err
		}
		if err := transition(level); err != nil {
			return err
		}
		level.UpdatedBy = actor
		if err := s.stock.UpdateLevel(ctx, level); err != nil {
			return fmt.Errorf("update stock level: %w", err)
		}

		if unitTransition == nil {
			return nil
		}
		for _, unitID := range in.UnitIDs {
			u, err := s.units.GetUnitForUpdate(ctx, unitID)
			if err != nil {
				return err
			}
			if err := unitTransition(u, actor); err != nil {
				return err
			}
			if err := s.units.UpdateUnit(ctx, u); err != nil {
				return fmt.Errorf("update unit %s: %w", unitID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, operation, in.ItemID, in.LocationID, map[string]any{
		"quantity": in.Quantity.String(),
	})
	logger.Info(ctx, "repair pool updated",
		"operation", operation,
		"item_id", in.ItemID,
		"location_id", in.LocationID,
		"quantity", in.Quantity,
	)
	return nil
}

// WriteOffInput removes beyond-repair quantity from stock entirely.
type WriteOffInput struct {
	ItemID     id.ID
	LocationID id.ID
	Quantity   types.Quantity

	// Theft records the loss as theft rather than damage.
	Theft bool

	// UnitIDs names units retired along with the write-off.
	UnitIDs []id.ID
	Notes   string
}

// WriteOffDamaged removes beyond-repair quantity from on-hand, appends a loss
// movement and retires the named units.
func (s *Service) WriteOffDamaged(ctx context.Context, in WriteOffInput) error {
	if !in.Quantity.IsPositive() {
		return apperror.NewInvalidQuantity("write-off quantity must be positive")
	}
	movementType := MovementTypeDamageLoss
	if in.Theft {
		movementType = MovementTypeTheftLoss
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		actor := appctx.ActorID(ctx)

		level, err := s.stock.GetLevelForUpdate(ctx, in.ItemID, in.LocationID)
		if err != nil {
			return err
		}
		snapshot := level.QuantityOnHand

		if err := level.WriteOffDamaged(in.Quantity); err != nil {
			return err
		}
		level.UpdatedBy = actor
		if err := s.stock.UpdateLevel(ctx, level); err != nil {
			return fmt.Errorf("update stock level: %w", err)
		}

		for _, unitID := range in.UnitIDs {
			u, err := s.units.GetUnitForUpdate(ctx, unitID)
			if err != nil {
				return err
			}
			if err := u.Retire(actor); err != nil {
				return err
			}
			if err := s.units.UpdateUnit(ctx, u); err != nil {
				return fmt.Errorf("update unit %s: %w", unitID, err)
			}
		}

		return s.appendMovement(ctx, level, movementType, in.Quantity.Neg(),
			snapshot, nil, nil, in.Notes, actor)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, "stock.write_off", in.ItemID, in.LocationID, map[string]any{
		"quantity": in.Quantity.String(),
		"theft":    in.Theft,
	})
	logger.Info(ctx, "stock written off",
		"item_id", in.ItemID,
		"location_id", in.LocationID,
		"quantity", in.Quantity,
		"movement_type", movementType,
	)
	return nil
}

// AdjustmentInput is a generic signed stock correction.
type AdjustmentInput struct {
	ItemID     id.ID
	LocationID id.ID
	Delta      types.Quantity
	Reason     string

	TransactionHeaderID *id.ID
	TransactionLineID   *id.ID
}

// AdjustStock applies a signed on-hand correction and records it as an
// adjustment movement. Negative corrections shrink the rentable pools
// proportionally; reserved damaged/repair quantities are never adjusted away.
func (s *Service) AdjustStock(ctx context.Context, in AdjustmentInput) error {
	if in.Delta.IsZero() {
		return apperror.NewInvalidQuantity("adjustment delta must be non-zero")
	}
	movementType := MovementTypeAdjustmentPos
	if in.Delta.IsNegative() {
		movementType = MovementTypeAdjustmentNeg
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		actor := appctx.ActorID(ctx)

		level, err := s.stock.GetOrCreateLevel(ctx, in.ItemID, in.LocationID, actor)
		if err != nil {
			return fmt.Errorf("get or create stock level: %w", err)
		}
		snapshot := level.QuantityOnHand

		if err := level.AdjustOnHand(in.Delta); err != nil {
			return err
		}
		level.UpdatedBy = actor
		if err := s.stock.UpdateLevel(ctx, level); err != nil {
			return fmt.Errorf("update stock level: %w", err)
		}

		return s.appendMovement(ctx, level, movementType, in.Delta,
			snapshot, in.TransactionHeaderID, in.TransactionLineID, in.Reason, actor)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, "stock.adjustment", in.ItemID, in.LocationID, map[string]any{
		"delta":  in.Delta.String(),
		"reason": in.Reason,
	})
	logger.Info(ctx, "stock adjusted",
		"item_id", in.ItemID,
		"location_id", in.LocationID,
		"delta", in.Delta,
		"reason", in.Reason,
	)
	return nil
}

// GetStockLevel returns the current aggregate for an (item, location) pair.
func (s *Service) GetStockLevel(ctx context.Context, itemID, locationID id.ID) (*StockLevel, error) {
	return s.stock.GetLevel(ctx, itemID, locationID)
}

// GetRentableQuantity returns quantity available for rental. Damaged and
// repair-stage stock never counts, even though it contributes to on-hand.
// A missing stock level reads as zero, not as an error.
func (s *Service) GetRentableQuantity(ctx context.Context, itemID, locationID id.ID) (types.Quantity, error) {
	level, err := s.stock.GetLevel(ctx, itemID, locationID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	if !level.IsActive {
		return 0, nil
	}
	return level.QuantityAvailable, nil
}

// CanFulfillRental reports whether a rental of the given quantity could be
// confirmed right now. Read path only; confirmation must still run
// UpdateStockForRentalOut, which re-checks under the row lock.
func (s *Service) CanFulfillRental(ctx context.Context, itemID, locationID id.ID, quantity types.Quantity) (bool, error) {
	level, err := s.stock.GetLevel(ctx, itemID, locationID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return level.CanFulfillRental(quantity), nil
}

// GetAvailableUnitsForRental returns up to quantityNeeded units that are
// rentable right now: available status, not blocked, acceptable condition,
// no overdue maintenance.
func (s *Service) GetAvailableUnitsForRental(ctx context.Context, itemID, locationID id.ID, quantityNeeded int) ([]*InventoryUnit, error) {
	candidates, err := s.units.ListAvailableForRental(ctx, itemID, locationID, 0)
	if err != nil {
		return nil, fmt.Errorf("list available units: %w", err)
	}

	now := time.Now().UTC()
	out := make([]*InventoryUnit, 0, quantityNeeded)
	for _, u := range candidates {
		if !u.CanBeRented(now) {
			continue
		}
		out = append(out, u)
		if quantityNeeded > 0 && len(out) == quantityNeeded {
			break
		}
	}
	return out, nil
}

// GetMovementHistory returns ledger history for an item.
func (s *Service) GetMovementHistory(ctx context.Context, itemID id.ID, filter MovementFilter) ([]StockMovement, error) {
	return s.stock.ListMovements(ctx, itemID, filter)
}

// movementBefore resolves the chained quantity_before for the next movement:
// the latest quantity_after recorded for the item, falling back to the
// pre-mutation on-hand snapshot when the item has no ledger history yet.
// The chain is deliberately scoped per item, not per (item, location).
func (s *Service) movementBefore(ctx context.Context, itemID id.ID, snapshot types.Quantity) (types.Quantity, error) {
	before, found, err := s.stock.LatestQuantityAfter(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("latest quantity after: %w", err)
	}
	if found {
		return before, nil
	}
	return snapshot, nil
}

// appendMovement computes the chain, builds and inserts one ledger row. The
// delta must be the same one just applied to the level.
func (s *Service) appendMovement(
	ctx context.Context,
	level *StockLevel,
	movementType MovementType,
	change, snapshot types.Quantity,
	headerID, lineID *id.ID,
	notes, actor string,
) error {
	before, err := s.movementBefore(ctx, level.ItemID, snapshot)
	if err != nil {
		return err
	}
	// The per-item chain nets out rental checkouts while on-hand keeps
	// counting stock on rent, so a legitimate negative delta can undershoot
	// the chain. Rebase on the pre-mutation on-hand instead of failing.
	if (before + change).IsNegative() && !(snapshot + change).IsNegative() {
		logger.Warn(ctx, "movement chain rebased on location snapshot",
			"item_id", level.ItemID,
			"location_id", level.LocationID,
			"chain_before", before,
			"snapshot", snapshot,
			"change", change,
		)
		before = snapshot
	}
	movement, err := NewStockMovement(
		level.ID, level.ItemID, level.LocationID,
		movementType, change, before, before+change, actor)
	if err != nil {
		return err
	}
	movement = movement.WithTransaction(headerID, lineID).WithNotes(notes)
	if err := s.stock.InsertMovement(ctx, movement); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, operation string, itemID, locationID id.ID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := AuditEntry{
		Operation:  operation,
		ItemID:     itemID,
		LocationID: locationID,
		Meta:       meta,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		logger.Warn(ctx, "audit record failed", "operation", operation, "error", err)
	}
}

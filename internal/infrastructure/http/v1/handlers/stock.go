package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/types"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/inventory"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/http/v1/dto"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/storage/postgres"
)

// StockHandler handles stock read endpoints: levels, availability, the
// movement ledger, and the operation audit trail.
type StockHandler struct {
	*BaseHandler
	service *inventory.Service
	audit   *postgres.AuditService
}

// NewStockHandler creates a new stock read handler.
func NewStockHandler(base *BaseHandler, service *inventory.Service, audit *postgres.AuditService) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
		audit:       audit,
	}
}

// GetLevel handles GET /stock/levels/:itemId/:locationId
func (h *StockHandler) GetLevel(c *gin.Context) {
	itemID, locationID, ok := h.parseItemLocationParams(c)
	if !ok {
		return
	}

	level, err := h.service.GetStockLevel(c.Request.Context(), itemID, locationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromStockLevel(level))
}

// GetAvailability handles GET /stock/availability/:itemId/:locationId
func (h *StockHandler) GetAvailability(c *gin.Context) {
	itemID, locationID, ok := h.parseItemLocationParams(c)
	if !ok {
		return
	}

	quantity, err := h.service.GetRentableQuantity(c.Request.Context(), itemID, locationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AvailabilityResponse{
		ItemID:     itemID.String(),
		LocationID: locationID.String(),
		Quantity:   quantity,
	})
}

// CheckFulfillment handles GET /stock/fulfillment/:itemId/:locationId?quantity=N
func (h *StockHandler) CheckFulfillment(c *gin.Context) {
	itemID, locationID, ok := h.parseItemLocationParams(c)
	if !ok {
		return
	}

	quantityStr := c.Query("quantity")
	if quantityStr == "" {
		h.Error(c, apperror.NewValidation("quantity is required"))
		return
	}
	quantity, err := types.NewQuantityFromString(quantityStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid quantity format"))
		return
	}

	fulfill, err := h.service.CanFulfillRental(c.Request.Context(), itemID, locationID, quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FulfillmentResponse{
		ItemID:     itemID.String(),
		LocationID: locationID.String(),
		Quantity:   quantity,
		Fulfill:    fulfill,
	})
}

// GetAvailableUnits handles GET /stock/units/:itemId/:locationId?needed=N
func (h *StockHandler) GetAvailableUnits(c *gin.Context) {
	itemID, locationID, ok := h.parseItemLocationParams(c)
	if !ok {
		return
	}

	needed := h.ParseIntQuery(c, "needed", 1)

	units, err := h.service.GetAvailableUnitsForRental(c.Request.Context(), itemID, locationID, needed)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.UnitResponse, len(units))
	for i, u := range units {
		items[i] = dto.FromUnit(u)
	}

	c.JSON(http.StatusOK, dto.ListResponse[dto.UnitResponse]{
		Items:      items,
		TotalCount: len(items),
	})
}

// GetMovements handles GET /stock/movements/:itemId
func (h *StockHandler) GetMovements(c *gin.Context) {
	itemID, err := id.Parse(c.Param("itemId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemId format"))
		return
	}

	filter := inventory.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if locStr := c.Query("locationId"); locStr != "" {
		parsed, err := id.Parse(locStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid locationId format"))
			return
		}
		filter.LocationID = &parsed
	}

	if mtStr := c.Query("movementType"); mtStr != "" {
		mt := inventory.MovementType(mtStr)
		filter.MovementType = &mt
	}

	if fromStr := c.Query("fromDate"); fromStr != "" {
		if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.FromDate = &parsed
		}
	}

	if toStr := c.Query("toDate"); toStr != "" {
		if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.ToDate = &parsed
		}
	}

	movements, err := h.service.GetMovementHistory(c.Request.Context(), itemID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.StockMovementResponse, len(movements))
	for i, m := range movements {
		items[i] = dto.FromStockMovement(m)
	}

	c.JSON(http.StatusOK, dto.ListResponse[dto.StockMovementResponse]{
		Items:      items,
		TotalCount: len(items),
	})
}

// GetAuditHistory handles GET /stock/audit/:itemId
func (h *StockHandler) GetAuditHistory(c *gin.Context) {
	itemID, err := id.Parse(c.Param("itemId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemId format"))
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)

	entries, err := h.audit.GetItemHistory(c.Request.Context(), itemID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse[postgres.AuditHistoryEntry]{
		Items:      entries,
		TotalCount: len(entries),
	})
}

func (h *StockHandler) parseItemLocationParams(c *gin.Context) (id.ID, id.ID, bool) {
	itemID, err := id.Parse(c.Param("itemId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemId format"))
		return id.Nil(), id.Nil(), false
	}
	locationID, err := id.Parse(c.Param("locationId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid locationId format"))
		return id.Nil(), id.Nil(), false
	}
	return itemID, locationID, true
}

// RegisterRoutes registers stock read routes.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/levels/:itemId/:locationId", h.GetLevel)
	rg.GET("/availability/:itemId/:locationId", h.GetAvailability)
	rg.GET("/fulfillment/:itemId/:locationId", h.CheckFulfillment)
	rg.GET("/units/:itemId/:locationId", h.GetAvailableUnits)
	rg.GET("/movements/:itemId", h.GetMovements)
	rg.GET("/audit/:itemId", h.GetAuditHistory)
}

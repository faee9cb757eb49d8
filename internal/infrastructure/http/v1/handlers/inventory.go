package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/inventory"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles stock-mutating operations.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Purchase handles POST /inventory/purchase
func (h *InventoryHandler) Purchase(c *gin.Context) {
	var req dto.PurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.UpdateStockForPurchase(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromPurchaseResult(result))
}

// Sale handles POST /inventory/sale
func (h *InventoryHandler) Sale(c *gin.Context) {
	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.UpdateStockForSale(c.Request.Context(), in); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "sale recorded")
}

// RentalOut handles POST /inventory/rental/out
func (h *InventoryHandler) RentalOut(c *gin.Context) {
	var req dto.RentalOutRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.UpdateStockForRentalOut(c.Request.Context(), in); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "rental out recorded")
}

// RentalReturn handles POST /inventory/rental/return
func (h *InventoryHandler) RentalReturn(c *gin.Context) {
	var req dto.RentalReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.UpdateStockForRentalReturn(c.Request.Context(), in); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "rental return recorded")
}

// RepairStart handles POST /inventory/repair/start
func (h *InventoryHandler) RepairStart(c *gin.Context) {
	h.repairTransition(c, h.service.MoveToRepair, "repair started")
}

// RepairComplete handles POST /inventory/repair/complete
func (h *InventoryHandler) RepairComplete(c *gin.Context) {
	h.repairTransition(c, h.service.CompleteRepair, "repair completed")
}

// RepairBeyondRepair handles POST /inventory/repair/beyond-repair
func (h *InventoryHandler) RepairBeyondRepair(c *gin.Context) {
	h.repairTransition(c, h.service.MarkBeyondRepair, "marked beyond repair")
}

func (h *InventoryHandler) repairTransition(
	c *gin.Context,
	op func(ctx context.Context, in inventory.RepairInput) error,
	message string,
) {
	var req dto.RepairRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := op(c.Request.Context(), in); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, message)
}

// WriteOff handles POST /inventory/write-off
func (h *InventoryHandler) WriteOff(c *gin.Context) {
	var req dto.WriteOffRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.WriteOffDamaged(c.Request.Context(), in); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "write-off recorded")
}

// Adjust handles POST /inventory/adjust
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req dto.AdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.AdjustStock(c.Request.Context(), in); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "adjustment recorded")
}

// RegisterRoutes registers stock mutation routes.
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/purchase", h.Purchase)
	rg.POST("/sale", h.Sale)
	rg.POST("/rental/out", h.RentalOut)
	rg.POST("/rental/return", h.RentalReturn)
	rg.POST("/repair/start", h.RepairStart)
	rg.POST("/repair/complete", h.RepairComplete)
	rg.POST("/repair/beyond-repair", h.RepairBeyondRepair)
	rg.POST("/write-off", h.WriteOff)
	rg.POST("/adjust", h.Adjust)
}

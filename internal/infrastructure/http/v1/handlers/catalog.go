package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tluanga-dev/rental-manager-sub001/internal/core/apperror"
	"github.com/tluanga-dev/rental-manager-sub001/internal/core/id"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/item"
	"github.com/tluanga-dev/rental-manager-sub001/internal/domain/catalogs/location"
	"github.com/tluanga-dev/rental-manager-sub001/internal/infrastructure/http/v1/dto"
)

// CatalogHandler handles item and location master-data endpoints.
type CatalogHandler struct {
	*BaseHandler
	items     *item.Service
	locations *location.Service
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, items *item.Service, locations *location.Service) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: base,
		items:       items,
		locations:   locations,
	}
}

// CreateItem handles POST /catalog/items
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	it := req.ToEntity()
	it.CreatedBy = h.GetUserID(c)
	it.UpdatedBy = it.CreatedBy

	if err := h.items.Create(c.Request.Context(), it); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromItem(it))
}

// GetItem handles GET /catalog/items/:id
func (h *CatalogHandler) GetItem(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid item id format"))
		return
	}

	it, err := h.items.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromItem(it))
}

// GetItemBySKU handles GET /catalog/items/sku/:sku
func (h *CatalogHandler) GetItemBySKU(c *gin.Context) {
	it, err := h.items.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromItem(it))
}

// CreateLocation handles POST /catalog/locations
func (h *CatalogHandler) CreateLocation(c *gin.Context) {
	var req dto.CreateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	loc := req.ToEntity()
	loc.CreatedBy = h.GetUserID(c)
	loc.UpdatedBy = loc.CreatedBy

	if err := h.locations.Create(c.Request.Context(), loc); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromLocation(loc))
}

// GetLocation handles GET /catalog/locations/:id
func (h *CatalogHandler) GetLocation(c *gin.Context) {
	locationID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid location id format"))
		return
	}

	loc, err := h.locations.GetByID(c.Request.Context(), locationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromLocation(loc))
}

// RegisterRoutes registers catalog routes.
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	items := rg.Group("/items")
	items.POST("", h.CreateItem)
	items.GET("/:id", h.GetItem)
	items.GET("/sku/:sku", h.GetItemBySKU)

	locations := rg.Group("/locations")
	locations.POST("", h.CreateLocation)
	locations.GET("/:id", h.GetLocation)
}

// server/internal/api/handlers/warehouse_handler.go
package handlers

import (
	"net/http"

	"disaster-relief-api-server/internal/inventory"

	"github.com/gin-gonic/gin"
)

type WarehouseHandler struct {
	Inventory *inventory.Service
}

func (h *WarehouseHandler) GetWarehouse(c *gin.Context) {
	items, err := h.Inventory.ListWarehouse(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *WarehouseHandler) AddWarehouseItem(c *gin.Context) {
	var in inventory.WarehouseInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.Inventory.AddWarehouseItem(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *WarehouseHandler) UpdateWarehouseItem(c *gin.Context) {
	var p inventory.WarehousePatch
	if !bindJSON(c, &p) {
		return
	}
	item, err := h.Inventory.UpdateWarehouseItem(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *WarehouseHandler) DeleteWarehouseItem(c *gin.Context) {
	if err := h.Inventory.DeleteWarehouseItem(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Resource removed from warehouse"})
}

// GetAllNgoResources lists every NGO holding with its owner, for admins.
func (h *WarehouseHandler) GetAllNgoResources(c *gin.Context) {
	recs, err := h.Inventory.ListAllNgoResources(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

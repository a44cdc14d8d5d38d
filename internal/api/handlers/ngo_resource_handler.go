// server/internal/api/handlers/ngo_resource_handler.go
package handlers

import (
	"net/http"

	"disaster-relief-api-server/internal/inventory"
	"disaster-relief-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

type NgoResourceHandler struct {
	Inventory *inventory.Service
}

func (h *NgoResourceHandler) GetMyResources(c *gin.Context) {
	recs, err := h.Inventory.ListNgoResources(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// AssignResource moves warehouse stock to an NGO. A new holding answers 201,
// a top-up of an existing one 200.
func (h *NgoResourceHandler) AssignResource(c *gin.Context) {
	var in inventory.AssignInput
	if !bindJSON(c, &in) {
		return
	}
	rec, created, err := h.Inventory.AssignToNgo(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, rec)
}

func (h *NgoResourceHandler) UpdateResource(c *gin.Context) {
	var p models.NgoResourcePatch
	if !bindJSON(c, &p) {
		return
	}
	rec, err := h.Inventory.UpdateNgoResource(c.Request.Context(), c.Param("id"), currentUser(c).ID, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *NgoResourceHandler) DeleteResource(c *gin.Context) {
	if err := h.Inventory.DeleteNgoResource(c.Request.Context(), c.Param("id"), currentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Resource removed"})
}

func (h *NgoResourceHandler) DeployResource(c *gin.Context) {
	res, err := h.Inventory.DeployNgoResource(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

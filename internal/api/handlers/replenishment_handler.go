// server/internal/api/handlers/replenishment_handler.go
package handlers

import (
	"net/http"

	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/replenishment"

	"github.com/gin-gonic/gin"
)

type ReplenishmentHandler struct {
	Replenishment *replenishment.Service
}

// CreateRequest is called by an NGO to ask the central warehouse for more
// of a resource it already holds.
func (h *ReplenishmentHandler) CreateRequest(c *gin.Context) {
	var in replenishment.CreateInput
	if !bindJSON(c, &in) {
		return
	}
	req, err := h.Replenishment.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *ReplenishmentHandler) GetRequests(c *gin.Context) {
	status := models.ReplenishmentStatus(c.Query("status"))
	reqs, err := h.Replenishment.List(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

func (h *ReplenishmentHandler) GetMyRequests(c *gin.Context) {
	reqs, err := h.Replenishment.ListForNgo(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

type resolvePayload struct {
	Status models.ReplenishmentStatus `json:"status"`
}

// ResolveRequest approves or rejects a pending request. Approval moves the
// stock in the same step.
func (h *ReplenishmentHandler) ResolveRequest(c *gin.Context) {
	var p resolvePayload
	if !bindJSON(c, &p) {
		return
	}
	req, err := h.Replenishment.Resolve(c.Request.Context(), c.Param("id"), p.Status, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

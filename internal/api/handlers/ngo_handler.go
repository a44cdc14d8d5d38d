// server/internal/api/handlers/ngo_handler.go
package handlers

import (
	"net/http"

	"disaster-relief-api-server/internal/apperr"
	"disaster-relief-api-server/internal/lifecycle"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/reporting"

	"github.com/gin-gonic/gin"
)

type NgoHandler struct {
	Lifecycle *lifecycle.Manager
	Reports   *reporting.Service
}

// GetNgoRequests lists the requests an NGO coordinates. Admins may look at
// any NGO.
func (h *NgoHandler) GetNgoRequests(c *gin.Context) {
	ngoID := c.Param("ngoId")
	user := currentUser(c)
	if user.Role != models.RoleAdmin && user.ID != ngoID {
		respondError(c, apperr.Forbidden("User not authorized to view these requests"))
		return
	}
	reqs, err := h.Lifecycle.List(c.Request.Context(), models.RequestFilter{ManagedBy: ngoID})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

func (h *NgoHandler) GetDashboard(c *gin.Context) {
	dash, err := h.Reports.NgoDashboard(c.Request.Context(), c.Param("ngoId"), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *NgoHandler) AcceptRequest(c *gin.Context) {
	req, err := h.Lifecycle.AcceptCoordinationTask(c.Request.Context(), c.Param("requestId"), c.Param("ngoId"), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type acceptTaskPayload struct {
	NgoID string `json:"ngoId"`
}

// AcceptTask serves the older /ngos/tasks/:taskId/accept path. The NGO id
// comes from the body and defaults to the caller.
func (h *NgoHandler) AcceptTask(c *gin.Context) {
	var p acceptTaskPayload
	if c.Request.ContentLength > 0 && !bindJSON(c, &p) {
		return
	}
	user := currentUser(c)
	if p.NgoID == "" {
		p.NgoID = user.ID
	}
	req, err := h.Lifecycle.AcceptCoordinationTask(c.Request.Context(), c.Param("taskId"), p.NgoID, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

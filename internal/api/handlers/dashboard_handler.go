// server/internal/api/handlers/dashboard_handler.go
package handlers

import (
	"net/http"
	"time"

	"disaster-relief-api-server/internal/reporting"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	Reports *reporting.Service
}

func (h *DashboardHandler) EmergencyOverview(c *gin.Context) {
	o, err := h.Reports.EmergencyOverview(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *DashboardHandler) VolunteerStats(c *gin.Context) {
	stats, err := h.Reports.VolunteerStats(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *DashboardHandler) VolunteerTasks(c *gin.Context) {
	tasks, err := h.Reports.VolunteerTasks(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// VolunteerAssignedTasks narrows to one volunteer when ?volunteerId is set.
func (h *DashboardHandler) VolunteerAssignedTasks(c *gin.Context) {
	tasks, err := h.Reports.VolunteerAssignedTasks(c.Request.Context(), c.Query("volunteerId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *DashboardHandler) Volunteers(c *gin.Context) {
	users, err := h.Reports.Volunteers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

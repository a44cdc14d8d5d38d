// server/internal/api/handlers/analytics_handler.go
package handlers

import (
	"net/http"

	"disaster-relief-api-server/internal/reporting"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	Reports *reporting.Service
}

func (h *AnalyticsHandler) GetAll(c *gin.Context) {
	a, err := h.Reports.Analytics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

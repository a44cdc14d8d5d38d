// server/internal/api/handlers/request_handler.go
package handlers

import (
	"net/http"
	"strings"
	"time"

	"disaster-relief-api-server/internal/lifecycle"
	"disaster-relief-api-server/internal/models"
	"disaster-relief-api-server/internal/reporting"

	"github.com/gin-gonic/gin"
)

const maxPhotoBytes = 10 << 20

type RequestHandler struct {
	Lifecycle *lifecycle.Manager
	Reports   *reporting.Service
}

// CreateRequest accepts JSON or a multipart form with an optional
// currentPhoto file.
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var in lifecycle.CreateInput
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid form data: " + err.Error()})
			return
		}
		if fh, err := c.FormFile("currentPhoto"); err == nil {
			if fh.Size > maxPhotoBytes {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Photo is too large"})
				return
			}
			f, err := fh.Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Could not read photo"})
				return
			}
			defer f.Close()
			in.Photo = &lifecycle.Photo{Body: f, Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type")}
		}
	} else if !bindJSON(c, &in) {
		return
	}

	req, err := h.Lifecycle.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Request submitted successfully",
		"requestId": req.ID,
		"request":   req,
	})
}

// CreateResourceRequest is the internal desk's path; the type is forced.
func (h *RequestHandler) CreateResourceRequest(c *gin.Context) {
	var in lifecycle.CreateInput
	if !bindJSON(c, &in) {
		return
	}
	in.RequestType = models.RequestTypeResource
	req, err := h.Lifecycle.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *RequestHandler) GetRequests(c *gin.Context) {
	filter := models.RequestFilter{
		Status:            models.RequestStatus(c.Query("status")),
		RequestType:       models.RequestType(c.Query("requestType")),
		ManagedBy:         c.Query("managedBy"),
		AssignedVolunteer: c.Query("assignedVolunteer"),
	}
	reqs, err := h.Lifecycle.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

func (h *RequestHandler) GetRequestByID(c *gin.Context) {
	req, err := h.Lifecycle.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type updateStatusPayload struct {
	Status models.RequestStatus `json:"status"`
	Notes  string               `json:"notes"`
}

func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	var p updateStatusPayload
	if !bindJSON(c, &p) {
		return
	}
	req, err := h.Lifecycle.UpdateStatus(c.Request.Context(), c.Param("id"), p.Status, p.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type assistancePayload struct {
	Notes string `json:"notes"`
}

func (h *RequestHandler) RequestAssistance(c *gin.Context) {
	var p assistancePayload
	if !bindJSON(c, &p) {
		return
	}
	var requester string
	if u := currentUser(c); u != nil {
		requester = u.ID
	}
	req, err := h.Lifecycle.RequestAssistance(c.Request.Context(), c.Param("id"), p.Notes, requester)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type assignPayload struct {
	VolunteerID string `json:"volunteerId"`
}

func (h *RequestHandler) AssignRequest(c *gin.Context) {
	var p assignPayload
	if !bindJSON(c, &p) {
		return
	}
	req, err := h.Lifecycle.AssignToVolunteer(c.Request.Context(), c.Param("id"), p.VolunteerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) GetRequestsReport(c *gin.Context) {
	report, err := h.Reports.RequestsReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *RequestHandler) GetLast7DaysStats(c *gin.Context) {
	stats, err := h.Reports.Last7Days(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// server/internal/api/handlers/contact_handler.go
package handlers

import (
	"net/http"

	"disaster-relief-api-server/internal/contact"
	"disaster-relief-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	Contact *contact.Service
}

func (h *ContactHandler) Send(c *gin.Context) {
	var in contact.SubmitInput
	if !bindJSON(c, &in) {
		return
	}
	q, err := h.Contact.Submit(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Message sent and query saved successfully!", "query": q})
}

func (h *ContactHandler) GetQueries(c *gin.Context) {
	qs, err := h.Contact.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, qs)
}

func (h *ContactHandler) UpdateQueryStatus(c *gin.Context) {
	var body struct {
		Status models.ContactStatus `json:"status"`
	}
	if !bindJSON(c, &body) {
		return
	}
	q, err := h.Contact.UpdateStatus(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *ContactHandler) Reply(c *gin.Context) {
	var body struct {
		ReplyMessage string `json:"replyMessage"`
	}
	if !bindJSON(c, &body) {
		return
	}
	q, err := h.Contact.Reply(c.Request.Context(), c.Param("id"), body.ReplyMessage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reply sent successfully!", "query": q})
}

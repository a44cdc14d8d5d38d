// server/internal/api/handlers/user_handler.go
package handlers

import (
	"net/http"

	"disaster-relief-api-server/internal/users"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	Users *users.Service
}

func (h *UserHandler) Register(c *gin.Context) {
	var in users.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	session, err := h.Users.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *UserHandler) Login(c *gin.Context) {
	var in users.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	session, err := h.Users.Login(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// CreateUser lets an admin provision any role. Credentials are mailed in the
// background when requested.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var in users.CreateInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.Users.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetAllUsers(c *gin.Context) {
	list, err := h.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type toggleBlockPayload struct {
	IsBlocked bool `json:"isBlocked"`
}

func (h *UserHandler) ToggleBlock(c *gin.Context) {
	var p toggleBlockPayload
	if !bindJSON(c, &p) {
		return
	}
	user, err := h.Users.SetBlocked(c.Request.Context(), c.Param("id"), p.IsBlocked)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type locationPayload struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (h *UserHandler) UpdateLocation(c *gin.Context) {
	var p locationPayload
	if !bindJSON(c, &p) {
		return
	}
	if p.Lat == nil || p.Lng == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "lat and lng are required"})
		return
	}
	user, err := h.Users.UpdateLocation(c.Request.Context(), c.Param("id"), currentUser(c), *p.Lat, *p.Lng)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

package handlers

import (
	"errors"
	"log"
	"net/http"

	"disaster-relief-api-server/internal/api/middleware"
	"disaster-relief-api-server/internal/apperr"
	"disaster-relief-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

// respondError writes err as {"message": ...}, with per-field detail for
// validation errors. Unexpected errors are logged and reported generically.
func respondError(c *gin.Context, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal(err, "Server Error")
	}
	if ae.Kind == apperr.KindInternal {
		log.Printf("[api] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	body := gin.H{"message": ae.Message}
	if len(ae.Fields) > 0 {
		body["fields"] = ae.Fields
	}
	c.JSON(ae.Kind.HTTPStatus(), body)
}

// bindJSON decodes the body or answers 400 and reports false.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

package auth

import (
	"cedarhill/portal-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Me(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet("user").(*model.User)

	c.JSON(http.StatusOK, gin.H{
		"userID":    user.ID,
		"email":     user.Email,
		"name":      user.Name,
		"admin":     user.Admin,
		"requestID": requestID,
	})
}

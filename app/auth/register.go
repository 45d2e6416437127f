// Package auth contains the handlers for the account lifecycle
// endpoints
package auth

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/pkg/httpx"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type registerBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func Register(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	user, err := d.Accounts.Register(data.Email, data.Password, data.Name)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	// Same answer whether or not the mail actually went out
	c.JSON(http.StatusOK, gin.H{
		"userID":    user.ID,
		"email":     user.Email,
		"message":   "Registered. Check your mailbox for a verification link",
		"requestID": requestID,
	})
}

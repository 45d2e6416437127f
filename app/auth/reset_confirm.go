package auth

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/pkg/httpx"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type resetConfirmBody struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func ResetConfirm(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data resetConfirmBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if _, err := d.Accounts.CompleteReset(data.Token, data.Password); err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Password updated. You can now log in with your new password",
		"requestID": requestID,
	})
}

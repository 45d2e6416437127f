package auth

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/pkg/httpx"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type resetRequestBody struct {
	Email string `json:"email"`
}

func ResetRequest(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data resetRequestBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := d.Accounts.RequestReset(data.Email); err != nil {
		httpx.Fail(c, err)
		return
	}

	// One fixed message for known and unknown addresses alike
	c.JSON(http.StatusOK, gin.H{
		"message":   "If an account with this email exists, a password reset link has been sent",
		"requestID": requestID,
	})
}

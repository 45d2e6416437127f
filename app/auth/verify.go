package auth

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/pkg/httpx"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Verify(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	user, err := d.Accounts.Verify(c.Query("token"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Email verified successfully. You can now log in",
		"email":     user.Email,
		"requestID": requestID,
	})
}

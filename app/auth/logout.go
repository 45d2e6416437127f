package auth

import (
	"cedarhill/portal-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logout destroys whatever session there is. It succeeds even when
// nobody was logged in.
func Logout(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	if err := d.Sessions.Clear(c.Writer, c.Request); err != nil {
		zap.L().Debug("Failed to clear session", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Logged out",
		"requestID": requestID,
	})
}

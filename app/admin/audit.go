package admin

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/pkg/httpx"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Audit returns the 100 most recent audit entries, newest first.
func Audit(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	entries, err := d.Audit.Latest(100)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":   entries,
		"requestID": requestID,
	})
}

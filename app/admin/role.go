package admin

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/internal/model"
	"cedarhill/portal-api/pkg/httpx"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ToggleRole flips the admin flag of the target account.
func ToggleRole(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	actor := c.MustGet("user").(*model.User)

	target, err := d.Accounts.ToggleAdmin(actor, c.Param("id"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      target,
		"requestID": requestID,
	})
}

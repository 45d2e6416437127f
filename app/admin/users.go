// Package admin contains the handlers behind the admin gate
package admin

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/pkg/httpx"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Users(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	users, err := d.Accounts.ListUsers()
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":     users,
		"requestID": requestID,
	})
}

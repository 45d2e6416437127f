package admin

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/internal/model"
	"cedarhill/portal-api/pkg/httpx"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func DeleteUser(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	actor := c.MustGet("user").(*model.User)
	targetID := c.Param("id")

	// Grab the storage keys first, the rows cascade away with the user
	var keys []string

	err := d.DB.
		Model(model.File{}).
		Where("owner_id = ?", targetID).
		Pluck("storage_key", &keys).
		Error
	if err != nil {
		zap.L().Error("Failed to list files for cleanup", zap.Error(err), zap.String("requestID", requestID))
		keys = nil
	}

	if err := d.Accounts.Delete(actor, targetID); err != nil {
		httpx.Fail(c, err)
		return
	}

	// Best effort, an orphaned object only wastes space
	for _, k := range keys {
		if err := d.Storage.Delete(k); err != nil {
			zap.L().Error("Failed to delete stored file", zap.String("key", k), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "User deleted",
		"requestID": requestID,
	})
}

package file

import (
	"cedarhill/portal-api/internal"
	"cedarhill/portal-api/internal/model"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func FileDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet("user").(*model.User)

	fileID := c.Param("id")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No file ID provided",
			"requestID": requestID,
		})
		return
	}

	var file model.File

	q := d.DB.Where("id = ?", fileID)
	if !user.Admin {
		q = q.Where("owner_id = ?", user.ID)
	}

	err := q.First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "File not found. It either doesn't exist or you don't own it",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Something went wrong",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check if file exists", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := d.DB.Delete(&file).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Something went wrong",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete file record", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// The row is gone, a leftover object only wastes space
	if err := d.Storage.Delete(file.StorageKey); err != nil {
		zap.L().Error("Failed to delete stored file", zap.String("key", file.StorageKey), zap.Error(err))
	}

	d.Audit.Log(model.ActionFileDeleted, user.ID, "file", file.ID, file.OriginalName)

	c.JSON(http.StatusOK, gin.H{
		"message":   "File deleted",
		"requestID": requestID,
	})
}
